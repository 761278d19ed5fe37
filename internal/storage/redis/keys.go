package redis

import "fmt"

// Key generation functions for each document

// assassinKey returns the Redis key for an Assassin
func assassinKey(prefix, identifier string) string {
	return fmt.Sprintf("%s:assassin:%s", prefix, identifier)
}

// assassinsIndexKey returns the Redis key for the SET of assassin identifiers
func assassinsIndexKey(prefix string) string {
	return fmt.Sprintf("%s:idx:assassins", prefix)
}

// eventKey returns the Redis key for an Event
func eventKey(prefix, identifier string) string {
	return fmt.Sprintf("%s:event:%s", prefix, identifier)
}

// eventsIndexKey returns the Redis key for the SET of event identifiers
func eventsIndexKey(prefix string) string {
	return fmt.Sprintf("%s:idx:events", prefix)
}

// genericStateKey returns the Redis key for the generic state document
func genericStateKey(prefix string) string {
	return fmt.Sprintf("%s:generic_state", prefix)
}

// uniqueIDKey returns the Redis key for the secret id counter
func uniqueIDKey(prefix string) string {
	return fmt.Sprintf("%s:unique_id", prefix)
}

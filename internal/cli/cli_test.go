package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/autoumpire/internal/config"
	pagesplugin "github.com/mcoot/autoumpire/internal/plugins/pages"
	"github.com/mcoot/autoumpire/internal/ui"
)

type CLISuite struct {
	suite.Suite
	dir    string
	out    bytes.Buffer
	errOut bytes.Buffer
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLISuite))
}

func (s *CLISuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.out.Reset()
	s.errOut.Reset()
	s.T().Setenv("AU2_STORAGE", config.StorageFile)
	s.T().Setenv("AU2_USERNAME", "umpire")
	s.T().Setenv("AU2_LOG_LEVEL", "error")
}

func (s *CLISuite) execute(args ...string) error {
	s.out.Reset()
	cmd := NewRootCmd(strings.NewReader(""), &s.out, &s.errOut)
	cmd.SetArgs(append([]string{"--base-dir", s.dir}, args...))
	return cmd.Execute()
}

func (s *CLISuite) TestConfigInitAndShow() {
	s.Require().NoError(s.execute("config", "init"))
	s.Contains(s.out.String(), "Wrote "+filepath.Join(s.dir, config.FileName))

	s.Error(s.execute("config", "init"))
	s.Require().NoError(s.execute("config", "init", "--force"))

	s.Require().NoError(s.execute("config", "show"))
	s.Contains(s.out.String(), "username: umpire")
}

func (s *CLISuite) TestConfigCommandsNeedNoDatabases() {
	s.Require().NoError(s.execute("config", "show"))
	_, err := os.Stat(filepath.Join(s.dir, "databases"))
	s.True(os.IsNotExist(err))
}

func (s *CLISuite) TestExports() {
	s.Require().NoError(s.execute("exports"))
	s.Contains(s.out.String(), pagesplugin.ExportGenerate)

	s.Require().NoError(s.execute("-o", "json", "exports"))
	var options []ui.Option
	s.Require().NoError(json.Unmarshal(s.out.Bytes(), &options))
	s.NotEmpty(options)
}

func (s *CLISuite) TestGenerate() {
	s.Require().NoError(s.execute("generate"))
	s.True(strings.HasPrefix(s.out.String(), "Generated "))

	_, err := os.Stat(filepath.Join(s.dir, "pages", "index.html"))
	s.NoError(err)
}

func (s *CLISuite) TestRunCreatesAssassin() {
	s.Require().NoError(s.execute("run", "core.create_assassin",
		"--set", "core.pseudonym=Alpha",
		"--set", "core.real_name=Ada",
	))
	s.Require().NoError(s.execute("-o", "json", "run", "core.create_assassin",
		"--set", "core.pseudonym=Bravo",
		"--set", "core.real_name=Bea",
	))
	var res Result
	s.Require().NoError(json.Unmarshal(s.out.Bytes(), &res))
	s.Equal("core.create_assassin", res.Export)

	data, err := os.ReadFile(filepath.Join(s.dir, "databases", "AssassinsDatabase.json"))
	s.Require().NoError(err)
	s.Contains(string(data), "Ada")
	s.Contains(string(data), "Bea")
}

func (s *CLISuite) TestRunRejectsBadSet() {
	s.Error(s.execute("run", "core.create_assassin", "--set", "nonsense"))
}

func (s *CLISuite) TestSyncNeedsRemote() {
	err := s.execute("sync", "status")
	s.ErrorIs(err, errNoRemote)
}

func (s *CLISuite) TestSyncWithLocalRemote() {
	s.T().Setenv("AU2_REMOTE_KIND", config.RemoteLocal)
	s.T().Setenv("AU2_REMOTE_ROOT", filepath.Join(s.dir, "remote"))

	s.Require().NoError(s.execute("sync", "upload"))
	s.Contains(s.out.String(), "Databases uploaded.")
	s.Require().NoError(s.execute("sync", "status"))
	s.Contains(s.out.String(), "in sync")
}

func TestScalar(t *testing.T) {
	if scalar("true") != true || scalar("false") != false {
		t.Fatal("booleans not typed")
	}
	if scalar("7") != 7 {
		t.Fatal("integers not typed")
	}
	if scalar("Alpha") != "Alpha" {
		t.Fatal("strings changed")
	}
}

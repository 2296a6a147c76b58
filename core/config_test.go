package core

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("TEST_TERM", "2025f")
	t.Setenv("TEST_TESTRUNEMAIL", "me@x.edu")
	t.Setenv("TEST_INSTRUCTORS", "prof@x.edu ta@x.edu")
	t.Setenv("TEST_MAIL_DRIVER", " Console ")
	t.Setenv("TEST_MAPPING_STUDENTID", "B")

	conf, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "TEST", conf.Env)
	assert.True(t, conf.TestMode)
	assert.Equal(t, "2025f", conf.Term)
	assert.Equal(t, "CHEM", conf.CourseSubjectPrefix)
	assert.Equal(t, "me@x.edu", conf.TestRunEmail)
	assert.Equal(t, []string{"prof@x.edu", "ta@x.edu"}, conf.Instructors)
	assert.Equal(t, "console", conf.Mail.Driver)
	assert.Equal(t, "D", conf.Mapping.EvaluatorEmail)
	assert.Equal(t, "B", conf.Mapping.StudentID)
	assert.Equal(t, []TargetConfig{{Code: "K", Fields: []string{"L", "M", "N"}}}, conf.Mapping.Targets)

	assert.True(t, filepath.IsAbs(conf.RosterDir))
	assert.Equal(t, filepath.Join(conf.WorkDir, "classlists"), conf.RosterDir)
	assert.Equal(t, filepath.Join(conf.WorkDir, "gradebook_upload"), conf.GradebookDir)
	assert.Empty(t, conf.TemplatesDir)
}

func TestNewConfig_defaultMapping(t *testing.T) {
	t.Setenv("ENV", "test")

	conf, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "D", conf.Mapping.EvaluatorEmail)
	assert.Equal(t, "H", conf.Mapping.StudentID)
}

func TestConfig_DefaultFromEmail(t *testing.T) {
	tests := []struct {
		name      string
		fromEmail string
		want      string
	}{
		{name: "bare address", fromEmail: "noreply@x.edu", want: `"Peer Feedback" <noreply@x.edu>`},
		{name: "named address", fromEmail: "Tutorials <noreply@x.edu>", want: `"Tutorials" <noreply@x.edu>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := &Config{AppName: "Peer Feedback", FromEmail: tt.fromEmail}
			addr := conf.DefaultFromEmail()
			assert.Equal(t, tt.want, addr.String())
		})
	}
}

package core

import (
	"net/mail"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	MailConfig struct {
		Driver   string // smtp (default), sendgrid, console
		Host     string
		Port     int
		Username string
		Password string
	}

	// TargetConfig maps one assessed student on the form: the short code column
	// and the three feedback columns that belong to it.
	TargetConfig struct {
		Code   string   `mapstructure:"code"`
		Fields []string `mapstructure:"fields"`
	}

	MappingConfig struct {
		EvaluatorEmail string
		StudentID      string
		Targets        []TargetConfig
	}

	Config struct {
		Env      string
		Debug    bool
		TestMode bool
		WorkDir  string

		AppName             string
		Term                string
		CourseSubjectPrefix string
		FromEmail           string
		TestRunEmail        string
		Instructors         []string

		RosterDir    string
		GradebookDir string
		ArchiveDir   string
		InboxDir     string
		TemplatesDir string // empty: embedded templates
		LogFile      string

		RollbarToken   string
		SendgridApiKey string

		Mail    MailConfig
		Mapping MappingConfig
	}
)

// NewConfig loads the configuration: defaults, then config/config.yaml (if any),
// then config/.env.<env> (if any), then the environment.
func NewConfig() (*Config, error) {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", false)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Peer Feedback")
	v.SetDefault("term", "2024s")
	v.SetDefault("courseSubjectPrefix", "CHEM")
	v.SetDefault("fromEmail", "noreply@localhost")
	v.SetDefault("testRunEmail", "")
	v.SetDefault("instructors", []string{})
	v.SetDefault("rosterDir", "classlists")
	v.SetDefault("gradebookDir", "gradebook_upload")
	v.SetDefault("archiveDir", "feedback_data_files")
	v.SetDefault("inboxDir", "")
	v.SetDefault("templatesDir", "")
	v.SetDefault("logFile", "email_log.log")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("mail.driver", "smtp")
	v.SetDefault("mail.host", "localhost")
	v.SetDefault("mail.port", 25)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mapping.evaluatorEmail", "D")
	v.SetDefault("mapping.studentId", "H")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd, err := Getwd()
	if err != nil {
		return nil, err
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(wd, "config"))
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "config.ReadInConfig")
		}
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "config.godotenv(%s)", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "config.os.Stat(%s)", dotEnvPath)
	}
	v.AutomaticEnv()

	conf := &Config{
		Env:                 env,
		Debug:               v.GetBool("debug"),
		TestMode:            v.GetBool("testMode"),
		WorkDir:             wd,
		AppName:             v.GetString("appName"),
		Term:                v.GetString("term"),
		CourseSubjectPrefix: v.GetString("courseSubjectPrefix"),
		FromEmail:           v.GetString("fromEmail"),
		TestRunEmail:        v.GetString("testRunEmail"),
		Instructors:         v.GetStringSlice("instructors"),
		RosterDir:           resolvePath(wd, v.GetString("rosterDir")),
		GradebookDir:        resolvePath(wd, v.GetString("gradebookDir")),
		ArchiveDir:          resolvePath(wd, v.GetString("archiveDir")),
		InboxDir:            resolvePath(wd, v.GetString("inboxDir")),
		TemplatesDir:        resolvePath(wd, v.GetString("templatesDir")),
		LogFile:             resolvePath(wd, v.GetString("logFile")),
		RollbarToken:        v.GetString("rollbarToken"),
		SendgridApiKey:      v.GetString("sendgridApiKey"),
		Mail: MailConfig{
			Driver:   CleanString(v.GetString("mail.driver"), true /* lower */),
			Host:     v.GetString("mail.host"),
			Port:     v.GetInt("mail.port"),
			Username: v.GetString("mail.username"),
			Password: v.GetString("mail.password"),
		},
		Mapping: MappingConfig{
			EvaluatorEmail: v.GetString("mapping.evaluatorEmail"),
			StudentID:      v.GetString("mapping.studentId"),
		},
	}
	if err := v.UnmarshalKey("mapping.targets", &conf.Mapping.Targets); err != nil {
		return nil, errors.Wrap(err, "config.mapping.targets")
	}
	if len(conf.Mapping.Targets) == 0 {
		conf.Mapping.Targets = []TargetConfig{{Code: "K", Fields: []string{"L", "M", "N"}}}
	}
	return conf, nil
}

// resolvePath makes relative paths relative to the working directory.
func resolvePath(wd, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(wd, p)
}

// DefaultFromEmail is the sender of every email.
func (c *Config) DefaultFromEmail() mail.Address {
	if addr, err := mail.ParseAddress(c.FromEmail); err == nil {
		if addr.Name == "" {
			addr.Name = c.AppName
		}
		return *addr
	}
	return mail.Address{Name: c.AppName, Address: c.FromEmail}
}

package config

import (
	stderrors "errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/rohankatakam/digger/internal/digger"
	"github.com/rohankatakam/digger/internal/errors"
	"github.com/rohankatakam/digger/internal/logging"
)

// ValidationResult holds validation results
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// AddError adds an error to the validation result
func (vr *ValidationResult) AddError(format string, args ...interface{}) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
}

// AddWarning adds a warning to the validation result
func (vr *ValidationResult) AddWarning(format string, args ...interface{}) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

// HasErrors returns true if there are any errors
func (vr *ValidationResult) HasErrors() bool {
	return !vr.Valid || len(vr.Errors) > 0
}

// Error returns a formatted error message
func (vr *ValidationResult) Error() string {
	if !vr.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Configuration validation failed:\n")
	for _, err := range vr.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err))
	}

	if len(vr.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, warn := range vr.Warnings {
			sb.WriteString(fmt.Sprintf("  - %s\n", warn))
		}
	}

	return sb.String()
}

// Err returns the result as a configuration error, or nil when valid
func (vr *ValidationResult) Err() error {
	if !vr.HasErrors() {
		return nil
	}
	return errors.ConfigError(strings.TrimRight(vr.Error(), "\n"))
}

// Errs returns each error as its own configuration error so they can be
// reported alongside other problems, or nil when valid
func (vr *ValidationResult) Errs() error {
	problems := &errors.MultiError{}
	for _, msg := range vr.Errors {
		problems.Add(errors.ConfigError(msg))
	}
	return problems.ErrorOrNil()
}

// Section names a part of the configuration that can be checked on its own
type Section string

const (
	SectionDigger   Section = "digger"
	SectionRelease  Section = "release"  // tagger.release_branch
	SectionIdentity Section = "identity" // tagger.user_name, tagger.user_email
	SectionCache    Section = "cache"
	SectionStorage  Section = "storage"
	SectionLog      Section = "log"
	SectionOutput   Section = "output"
)

// AllSections lists every section in validation order
func AllSections() []Section {
	return []Section{
		SectionDigger, SectionRelease, SectionIdentity,
		SectionCache, SectionStorage, SectionLog, SectionOutput,
	}
}

// Validate checks every section and collects all problems
func (c *Config) Validate() *ValidationResult {
	return c.ValidateSections(AllSections()...)
}

// ValidateSections checks only the named sections, in the order of
// AllSections, and collects all problems
func (c *Config) ValidateSections(sections ...Section) *ValidationResult {
	result := &ValidationResult{Valid: true}

	wanted := make(map[Section]bool, len(sections))
	for _, s := range sections {
		wanted[s] = true
	}

	checks := map[Section]func(*ValidationResult){
		SectionDigger:   c.validateDigger,
		SectionRelease:  c.validateRelease,
		SectionIdentity: c.validateIdentity,
		SectionCache:    c.validateCache,
		SectionStorage:  c.validateStorage,
		SectionLog:      c.validateLog,
		SectionOutput:   c.validateOutput,
	}
	for _, s := range AllSections() {
		if wanted[s] {
			checks[s](result)
		}
	}

	return result
}

func (c *Config) validateDigger(result *ValidationResult) {
	if _, err := digger.New(c.Digger); err != nil {
		var multi *errors.MultiError
		if stderrors.As(err, &multi) {
			for _, e := range multi.Errors {
				result.AddError("%v", e)
			}
			return
		}
		result.AddError("%v", err)
	}
}

func (c *Config) validateRelease(result *ValidationResult) {
	if c.Tagger.ReleaseBranch == "" {
		result.AddError("tagger.release_branch is required")
	}
}

func (c *Config) validateIdentity(result *ValidationResult) {
	if c.Tagger.UserEmail != "" {
		if _, err := mail.ParseAddress(c.Tagger.UserEmail); err != nil {
			result.AddError("tagger.user_email is invalid: %v", err)
		}
	}
	if (c.Tagger.UserName == "") != (c.Tagger.UserEmail == "") {
		result.AddWarning("tagger.user_name and tagger.user_email should be set together; git falls back to its own identity for the missing one")
	}
}

func (c *Config) validateCache(result *ValidationResult) {
	if !c.Cache.Enabled {
		return
	}
	if c.Cache.Path == "" {
		result.AddError("cache.path is required when the cache is enabled")
	}
	if c.Cache.TTL < 0 {
		result.AddError("cache.ttl must not be negative")
	}
}

func (c *Config) validateStorage(result *ValidationResult) {
	switch c.Storage.Type {
	case "sqlite":
		if c.Storage.LocalPath == "" {
			result.AddError("storage.local_path is required for sqlite storage")
		}
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			result.AddError("storage.postgres_dsn is required for postgres storage")
		} else if !strings.HasPrefix(c.Storage.PostgresDSN, "postgres://") && !strings.HasPrefix(c.Storage.PostgresDSN, "postgresql://") {
			result.AddError("storage.postgres_dsn must start with postgres:// or postgresql://")
		} else if strings.Contains(c.Storage.PostgresDSN, "sslmode=disable") {
			result.AddWarning("storage.postgres_dsn has sslmode=disable")
		}
	default:
		result.AddError("storage.type must be sqlite or postgres, got %q", c.Storage.Type)
	}
}

func (c *Config) validateLog(result *ValidationResult) {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		result.AddError("log.level: %v", err)
	}
}

func (c *Config) validateOutput(result *ValidationResult) {
	switch c.Output.Format {
	case "json", "yaml", "text":
	default:
		result.AddError("output.format must be json, yaml or text, got %q", c.Output.Format)
	}
}

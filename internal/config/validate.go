package config

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// FileError is a problem with one config file. Line is 0 when unknown;
// Key names the offending setting for value errors.
type FileError struct {
	Path    string
	Line    int
	Key     string
	Message string
}

func (e *FileError) Error() string {
	switch {
	case e.Line > 0:
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	case e.Key != "":
		return fmt.Sprintf("%s: %s %s", e.Path, e.Key, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
}

var yamlLine = regexp.MustCompile(`^yaml: line (\d+): `)

// CheckYAMLSyntax parses data as YAML and reports the first syntax error
// with its line. Blank input is valid.
func CheckYAMLSyntax(data []byte, path string) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	var doc yaml.Node
	err := yaml.Unmarshal(data, &doc)
	if err == nil {
		return nil
	}

	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) {
		return &FileError{Path: path, Message: strings.Join(typeErr.Errors, "; ")}
	}
	msg := err.Error()
	if m := yamlLine.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return &FileError{Path: path, Line: line, Message: msg[len(m[0]):]}
	}
	return &FileError{Path: path, Message: strings.TrimPrefix(msg, "yaml: ")}
}

var validate = validator.New()

// ValidateConfigValues checks the merged configuration. The error names the
// config key, not the Go field.
func ValidateConfigValues(cfg *Configuration) error {
	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
			return &FileError{Path: "config", Message: err.Error()}
		}
		fe := fieldErrs[0]
		return &FileError{Path: "config", Key: configKey(fe), Message: describeRule(fe)}
	}

	if strings.TrimSpace(cfg.CodeCmd) == "" {
		return &FileError{Path: "config", Key: "code_cmd", Message: "must not be blank"}
	}
	if strings.ContainsAny(cfg.CommonProfile, `/\`) {
		return &FileError{Path: "config", Key: "common_profile", Message: "must be a folder name, not a path"}
	}
	return nil
}

// configKey maps "Configuration.Git.AuthorEmail" to "git.author_email".
func configKey(fe validator.FieldError) string {
	parts := strings.Split(fe.StructNamespace(), ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = snakeCase(p)
	}
	return strings.Join(parts, ".")
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "email":
		return "must be an email address"
	}
	return "fails the " + fe.Tag() + " rule"
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

package config

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// ConfigValueType is the type a configuration value is parsed as.
type ConfigValueType int

const (
	TypeBool ConfigValueType = iota
	TypeInt
	TypeString
	TypeEnum
	TypeList
)

var typeNames = [...]string{"bool", "int", "string", "enum", "list"}

func (t ConfigValueType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// ConfigKeySchema describes one settable configuration key.
type ConfigKeySchema struct {
	Type ConfigValueType
	// AllowedValues lists the options of an enum key.
	AllowedValues []string
	Description   string
	Default       any
}

// KnownKeys maps every dotted configuration key to its schema. It is the
// source of the built-in defaults and of 'config keys'.
var KnownKeys = map[string]ConfigKeySchema{
	"profiles_dir":          {TypeString, nil, "Shared profile folder (one sub-folder per profile)", "vscode/profiles"},
	"common_profile":        {TypeString, nil, "Profile applied first on every apply", ".project-common"},
	"explain_file":          {TypeString, nil, "JSON file with extension explanations", "vscode/vscode-extensions-explain.json"},
	"user_dir":              {TypeString, nil, "VS Code user directory (empty = detect)", ""},
	"safe_preset":           {TypeBool, nil, "Keep your theme, font and zoom settings during apply", false},
	"protected_keys":        {TypeList, nil, "Comma separated keys that always keep your value", []string{}},
	"track_unchanged":       {TypeBool, nil, "Record keys that profiles touched without changing", false},
	"code_cmd":              {TypeString, nil, "Editor command line used to manage extensions", "code"},
	"install_extensions":    {TypeBool, nil, "Install profile extensions during apply", true},
	"insecure_tls":          {TypeBool, nil, "Disable TLS verification for extension downloads", false},
	"report_path":           {TypeString, nil, "Where apply writes its merge report (empty = no report)", "vscode/vscode-setting-merge-report.md"},
	"report_format":         {TypeEnum, []string{"markdown", "yaml"}, "Merge report format", "markdown"},
	"state_dir":             {TypeString, nil, "Directory for sync history", "~/.profilesync/state"},
	"max_history_entries":   {TypeInt, nil, "Sync history entries kept before the oldest are pruned", 200},
	"git.auto_commit":       {TypeBool, nil, "Commit exported profiles to the shared repository", false},
	"git.author_name":       {TypeString, nil, "Commit author name", ""},
	"git.author_email":      {TypeString, nil, "Commit author email", ""},
	"git.pull_before_apply": {TypeBool, nil, "Fast-forward the shared repository before apply", false},
}

// SortedKeys returns the known keys in alphabetical order.
func SortedKeys() []string {
	keys := make([]string, 0, len(KnownKeys))
	for k := range KnownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ErrUnknownKey reports a key missing from KnownKeys.
type ErrUnknownKey struct {
	Key string
}

func (e ErrUnknownKey) Error() string {
	return "unknown configuration key: " + e.Key
}

// GetKeySchema looks up a key, failing with ErrUnknownKey.
func GetKeySchema(key string) (ConfigKeySchema, error) {
	schema, ok := KnownKeys[key]
	if !ok {
		return ConfigKeySchema{}, ErrUnknownKey{Key: key}
	}
	return schema, nil
}

// ParsedValue is a command-line value converted to its key's type.
type ParsedValue struct {
	Raw    string
	Parsed any
	Type   ConfigValueType
}

// ValidateValue parses value as the type of key. Booleans accept any case;
// lists are comma separated with blank items dropped.
func ValidateValue(key, value string) (ParsedValue, error) {
	schema, err := GetKeySchema(key)
	if err != nil {
		return ParsedValue{}, err
	}
	pv := ParsedValue{Raw: value, Type: schema.Type}

	switch schema.Type {
	case TypeBool:
		b, ok := map[string]bool{"true": true, "false": false}[strings.ToLower(value)]
		if !ok {
			return ParsedValue{}, fmt.Errorf("invalid boolean: %q (expected true or false)", value)
		}
		pv.Parsed = b
	case TypeInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return ParsedValue{}, fmt.Errorf("invalid integer: %q", value)
		}
		pv.Parsed = n
	case TypeEnum:
		if !slices.Contains(schema.AllowedValues, value) {
			return ParsedValue{}, fmt.Errorf("invalid value: %q (valid options: %s)",
				value, strings.Join(schema.AllowedValues, ", "))
		}
		pv.Parsed = value
	case TypeList:
		items := []string{}
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		pv.Parsed = items
	default:
		pv.Parsed = value
	}
	return pv, nil
}

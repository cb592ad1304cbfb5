package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// PathEnv names the env variable holding the default config file path.
const PathEnv = "CONFIG_FILE"

// LoadConfig hydrates the provided struct pointer from the YAML file named by
// CONFIG_FILE (optional) and overrides it with environment variables.
func LoadConfig(target interface{}) error {
	return LoadFile(os.Getenv(PathEnv), target)
}

// LoadFile is LoadConfig with an explicit file path. An empty path skips the
// file and only applies the environment. JSON files load as well, being valid
// YAML. Nested structs get PARENT_CHILD env keys unless an `env:"KEY"` tag is set.
func LoadFile(path string, target interface{}) error {
	if target == nil {
		return errors.New("config: target is nil")
	}

	val := reflect.ValueOf(target)
	if val.Kind() != reflect.Ptr || val.Elem().Kind() != reflect.Struct {
		return errors.New("config: target must be pointer to struct")
	}

	if path = strings.TrimSpace(path); path != "" {
		if err := loadFromFile(path, target); err != nil {
			return err
		}
	}

	return populateFromEnv(val.Elem(), "")
}

func loadFromFile(path string, target interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read file: %w", err)
	}

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("config: decode yaml: %w", err)
	}

	return nil
}

// populateFromEnv walks the struct and overrides fields whose env key is set.
// Nested structs extend the prefix of untagged children.
func populateFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		key, ok := envKey(t.Field(i), prefix)
		if !ok || !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct {
			if err := populateFromEnv(field, key); err != nil {
				return err
			}
			continue
		}

		raw, set := os.LookupEnv(key)
		if !set {
			continue
		}
		if err := assign(field, raw); err != nil {
			return fmt.Errorf("config: parse %s: %w", key, err)
		}
	}
	return nil
}

// envKey returns the explicit `env` tag or PREFIX_FIELD; ok is false for `env:"-"`.
func envKey(field reflect.StructField, prefix string) (string, bool) {
	tag := field.Tag.Get("env")
	switch {
	case tag == "-":
		return "", false
	case tag != "":
		return strings.ToUpper(tag), true
	}
	name := strings.ToUpper(strings.ReplaceAll(field.Name, "-", "_"))
	if prefix == "" {
		return name, true
	}
	return prefix + "_" + name, true
}

// assign covers the kinds config structs here use: strings, flags and counts.
func assign(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(parsed)
	case reflect.Int, reflect.Int64:
		parsed, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(parsed)
	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}
	return nil
}

// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fluffycraft/blockbuild/internal/issue"
	"github.com/fluffycraft/blockbuild/pkg/cueutil"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "blockbuild"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "blockbuild.config"
	// EnvPrefix prefixes the environment overrides (BLOCKBUILD_SRC_PATH, ...).
	EnvPrefix = "BLOCKBUILD"

	keySrcPath       = "srcPath"
	keyOutPath       = "outPath"
	keyComMojangPath = "comMojangPath"
)

// ConfigFileExts are tried in order when no explicit config file is given.
var ConfigFileExts = []string{"json", "cue"}

//go:embed config_schema.cue
var configSchema []byte

// fileConfig mirrors #Config. comMojangPath is either a string or a
// {fromHomeDir, path} object, so it decodes loosely.
type fileConfig struct {
	PackName      string             `json:"packName"`
	SrcPath       string             `json:"srcPath"`
	OutPath       string             `json:"outPath"`
	ComMojangPath any                `json:"comMojangPath"`
	Packs         []PackType         `json:"packs"`
	Filters       []FilterInvocation `json:"filters"`
}

// FindConfigFile returns the config file inside projectDir, trying each of
// ConfigFileExts.
func FindConfigFile(projectDir string) (string, bool) {
	for _, ext := range ConfigFileExts {
		p := filepath.Join(projectDir, ConfigFileName+"."+ext)
		if fileExists(p) {
			return p, true
		}
	}
	return "", false
}

// loadWithOptions reads, validates and resolves the project config.
//
// Precedence for srcPath/outPath/comMojangPath, highest first: CLI options,
// BLOCKBUILD_* environment, config file, defaults.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	projectDir := opts.ProjectDir
	if projectDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, "", fmt.Errorf("failed to get working directory: %w", err)
		}
		projectDir = wd
	}
	projectDir, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve project directory: %w", err)
	}

	cfgPath := opts.ConfigFilePath
	if cfgPath == "" {
		found, ok := FindConfigFile(projectDir)
		if !ok {
			found = filepath.Join(projectDir, ConfigFileName+".json")
		}
		cfgPath = found
	} else if !filepath.IsAbs(cfgPath) {
		cfgPath = filepath.Join(projectDir, cfgPath)
	}

	data, err := os.ReadFile(cfgPath)
	if err != nil {
		return nil, "", issue.NewInternalError(issue.CodeInternalConfigRead, "Failed to read config file.",
			issue.NewErrorContext().
				WithOperation("read configuration").
				WithResource(cfgPath).
				WithSuggestion("Run 'blockbuild init <packName> <authors>' to create a project").
				WithSuggestion("Pass --config to point at a different file").
				Wrap(err).
				BuildError())
	}

	fc, err := parseConfig(data, filepath.Base(cfgPath))
	if err != nil {
		return nil, "", err
	}

	v := viper.New()
	v.SetDefault(keySrcPath, DefaultSrcPath)
	v.SetDefault(keyOutPath, DefaultOutPath)
	v.SetDefault(keyComMojangPath, "")
	v.SetEnvPrefix(EnvPrefix)
	for key, env := range map[string]string{
		keySrcPath:       EnvPrefix + "_SRC_PATH",
		keyOutPath:       EnvPrefix + "_OUT_PATH",
		keyComMojangPath: EnvPrefix + "_COM_MOJANG_PATH",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, "", fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	comMojang, err := resolveComMojangPath(fc.ComMojangPath)
	if err != nil {
		return nil, "", err
	}
	fileValues := map[string]any{}
	if fc.SrcPath != "" {
		fileValues[keySrcPath] = fc.SrcPath
	}
	if fc.OutPath != "" {
		fileValues[keyOutPath] = fc.OutPath
	}
	if comMojang != "" {
		fileValues[keyComMojangPath] = comMojang
	}
	if err := v.MergeConfigMap(fileValues); err != nil {
		return nil, "", fmt.Errorf("failed to merge config: %w", err)
	}

	if opts.SrcPath != "" {
		v.Set(keySrcPath, opts.SrcPath)
	}
	if opts.OutPath != "" {
		v.Set(keyOutPath, opts.OutPath)
	}

	comMojang = v.GetString(keyComMojangPath)
	if comMojang == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, "", fmt.Errorf("failed to get home directory: %w", err)
		}
		comMojang = filepath.Join(home, DefaultComMojangPath)
	}

	cfg := &Config{
		PackName:      fc.PackName,
		SrcPath:       absFrom(projectDir, v.GetString(keySrcPath)),
		OutPath:       absFrom(projectDir, v.GetString(keyOutPath)),
		ComMojangPath: absFrom(projectDir, comMojang),
		Packs:         fc.Packs,
		Filters:       fc.Filters,
		ProjectDir:    projectDir,
	}
	if cfg.Filters == nil {
		cfg.Filters = []FilterInvocation{}
	}

	return cfg, cfgPath, nil
}

// parseConfig validates data against #Config. Syntax errors map to I3,
// schema violations to Z1.
func parseConfig(data []byte, filename string) (*fileConfig, error) {
	result, err := cueutil.ParseAndDecode[fileConfig](configSchema, data, "#Config", cueutil.WithFilename(filename))
	if err != nil {
		if errors.Is(err, cueutil.ErrSyntax) {
			return nil, issue.NewInternalError(issue.CodeInternalConfigParse, "Failed to parse config file.", err)
		}
		return nil, issue.NewSchemaError(issue.CodeSchemaConfig, "Error parsing config.", err)
	}
	for _, p := range result.Value.Packs {
		if err := p.Validate(); err != nil {
			return nil, issue.NewSchemaError(issue.CodeSchemaConfig, "Error parsing config.", err)
		}
	}
	return result.Value, nil
}

// resolveComMojangPath flattens the string | {fromHomeDir, path} union.
func resolveComMojangPath(raw any) (string, error) {
	switch v := raw.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case map[string]any:
		p, _ := v["path"].(string)
		if fromHome, _ := v["fromHomeDir"].(bool); fromHome {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			return filepath.Join(home, p), nil
		}
		return p, nil
	default:
		return "", issue.NewSchemaError(issue.CodeSchemaConfig, "Error parsing config.",
			fmt.Errorf("comMojangPath: unexpected %T", raw))
	}
}

func absFrom(base, p string) string {
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[2:])
		}
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// GenerateCUE renders a resolved configuration as CUE, for `config show`.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// BlockBuild resolved configuration\n\n")
	fmt.Fprintf(&sb, "packName:      %q\n", cfg.PackName)
	fmt.Fprintf(&sb, "srcPath:       %q\n", cfg.SrcPath)
	fmt.Fprintf(&sb, "outPath:       %q\n", cfg.OutPath)
	fmt.Fprintf(&sb, "comMojangPath: %q\n", cfg.ComMojangPath)

	packs := make([]string, 0, len(cfg.Packs))
	for _, p := range cfg.Packs {
		packs = append(packs, fmt.Sprintf("%q", p))
	}
	fmt.Fprintf(&sb, "packs: [%s]\n", strings.Join(packs, ", "))

	if len(cfg.Filters) == 0 {
		sb.WriteString("filters: []\n")
		return sb.String()
	}
	sb.WriteString("filters: [\n")
	for _, f := range cfg.Filters {
		if f.Arguments != nil {
			fmt.Fprintf(&sb, "\t{id: %q, arguments: %s},\n", f.ID, formatCUEValue(f.Arguments))
		} else {
			fmt.Fprintf(&sb, "\t{id: %q},\n", f.ID)
		}
	}
	sb.WriteString("]\n")

	return sb.String()
}

// formatCUEValue prints arguments as JSON, which is valid CUE.
func formatCUEValue(v any) string {
	out, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%q", fmt.Sprint(v))
	}
	return string(out)
}

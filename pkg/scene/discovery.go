package scene

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Info describes a scene for listings
type Info struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"` // "builtin" or "file"
	FilePath    string `json:"filePath,omitempty"`
}

// Catalog lists the built-in scenes followed by the scene files in dir,
// each group sorted by name. A missing dir yields only the built-ins.
// Files whose header cannot be read are logged and skipped.
func Catalog(dir string, logger *slog.Logger) ([]Info, error) {
	var infos []Info
	for _, name := range Names() {
		s := builtins[name]()
		infos = append(infos, Info{
			ID:          name,
			Name:        titleCase(name),
			Description: s.Description,
			Type:        "builtin",
		})
	}

	files, err := ListFiles(dir)
	if err != nil {
		return nil, err
	}

	var fileInfos []Info
	for _, path := range files {
		info, err := ReadInfo(path)
		if err != nil {
			logger.Warn("skipping scene file", "path", path, "err", err)
			continue
		}
		fileInfos = append(fileInfos, info)
	}
	sort.Slice(fileInfos, func(i, j int) bool {
		return fileInfos[i].Name < fileInfos[j].Name
	})

	return append(infos, fileInfos...), nil
}

// ListFiles returns the YAML scene files directly inside dir
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scene: list %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !IsSceneFile(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

// ReadInfo reads the name and description of a scene file without building it.
// The name falls back to the title-cased file name.
func ReadInfo(path string) (Info, error) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	info := Info{
		ID:       path,
		Name:     titleCase(base),
		Type:     "file",
		FilePath: path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return info, fmt.Errorf("scene: read %s: %w", path, err)
	}
	var header struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
	}
	if err := yaml.Unmarshal(data, &header); err != nil {
		return info, fmt.Errorf("scene: unmarshal %s: %w", path, err)
	}
	if header.Name != "" {
		info.Name = header.Name
	}
	info.Description = header.Description
	return info, nil
}

// titleCase converts a filename-style string to title case,
// e.g. "glass-hall" -> "Glass Hall"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}

package simulator

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// HubImage는 원격 저장소(Docker Hub)에 있다고 가정하는 공식 이미지입니다.
type HubImage struct {
	Name    string   `yaml:"name"`
	Tags    []string `yaml:"tags"`
	Layers  int      `yaml:"layers"`
	Size    int64    `yaml:"size"`
	Command []string `yaml:"command"`
	Daemon  bool     `yaml:"daemon"`
	Ports   []string `yaml:"ports"`
	WorkDir string   `yaml:"workdir"`
	Logs    []string `yaml:"logs"`
}

// HasTag는 카탈로그에 tag가 있는지 확인합니다.
func (h HubImage) HasTag(tag string) bool {
	for _, t := range h.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Catalog는 이름으로 찾을 수 있는 공식 이미지 목록입니다.
type Catalog struct {
	images map[string]HubImage
	byID   map[string]HubImage
	order  []string
}

// LoadCatalog는 YAML 문서에서 카탈로그를 읽습니다.
func LoadCatalog(data []byte) (*Catalog, error) {
	var doc struct {
		Images []HubImage `yaml:"images"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("simulator: parse catalog: %w", err)
	}

	c := &Catalog{
		images: make(map[string]HubImage, len(doc.Images)),
		byID:   make(map[string]HubImage),
	}
	for _, img := range doc.Images {
		if img.Name == "" {
			return nil, fmt.Errorf("simulator: catalog entry without name")
		}
		if img.Layers <= 0 {
			img.Layers = 1
		}
		if img.WorkDir == "" {
			img.WorkDir = "/"
		}
		c.images[img.Name] = img
		c.order = append(c.order, img.Name)
		for _, tag := range img.Tags {
			id, _ := catalogImageID(img.Name, tag)
			c.byID[id] = img
		}
	}
	return c, nil
}

// DefaultCatalog는 바이너리에 포함된 기본 카탈로그를 읽습니다.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(catalogYAML)
}

// Lookup은 이름으로 공식 이미지를 찾습니다.
func (c *Catalog) Lookup(name string) (HubImage, bool) {
	img, ok := c.images[name]
	return img, ok
}

// Names는 카탈로그 이미지 이름을 선언 순서대로 반환합니다.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// ByImageID는 이미지 ID로 카탈로그 항목을 찾습니다. 다시 태그한 공식 이미지도 찾을 수 있습니다.
func (c *Catalog) ByImageID(hexID string) (HubImage, bool) {
	img, ok := c.byID[hexID]
	return img, ok
}

// catalogImageID는 공식 이미지 name:tag의 고정 ID입니다.
func catalogImageID(name, tag string) (string, string) {
	return contentID("library/" + name + ":" + tag)
}

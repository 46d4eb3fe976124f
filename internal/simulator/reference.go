package simulator

import (
	"strings"

	"github.com/distribution/reference"
	"github.com/dockersim/app/internal/storage"
)

// imageRef는 정규화된 이미지 이름입니다.
type imageRef struct {
	Domain      string
	Namespace   string
	Name        string
	Tag         string
	ImplicitTag bool
}

// parseImageRef는 "nginx", "alice/app:v1", "docker.io/library/redis:7" 같은 참조를 정규화합니다.
func parseImageRef(raw string) (imageRef, error) {
	named, err := reference.ParseNormalizedNamed(raw)
	if err != nil {
		return imageRef{}, err
	}
	if _, ok := named.(reference.Digested); ok {
		return imageRef{}, reference.ErrReferenceInvalidFormat
	}

	_, hasTag := named.(reference.Tagged)
	tagged, ok := reference.TagNameOnly(named).(reference.Tagged)
	if !ok {
		return imageRef{}, reference.ErrReferenceInvalidFormat
	}

	ref := imageRef{
		Domain:      reference.Domain(named),
		Name:        reference.Path(named),
		Tag:         tagged.Tag(),
		ImplicitTag: !hasTag,
	}
	if i := strings.LastIndex(ref.Name, "/"); i >= 0 {
		ref.Namespace, ref.Name = ref.Name[:i], ref.Name[i+1:]
	}
	return ref, nil
}

// Path는 레지스트리 안의 저장소 경로입니다 (library/nginx).
func (r imageRef) Path() string {
	if r.Namespace == "" {
		return r.Name
	}
	return r.Namespace + "/" + r.Name
}

// Familiar는 사용자에게 보여주는 짧은 이름입니다 (nginx:latest).
func (r imageRef) Familiar() string {
	return storage.Image{Domain: r.Domain, Namespace: r.Namespace, Name: r.Name, Tag: r.Tag}.Reference()
}

// Canonical은 레지스트리를 포함한 전체 이름입니다 (docker.io/library/nginx:latest).
func (r imageRef) Canonical() string {
	return r.Domain + "/" + r.Path() + ":" + r.Tag
}

// official은 카탈로그에서 찾아야 하는 공식 이미지인지 확인합니다.
func (r imageRef) official() bool {
	return r.Domain == storage.DefaultDomain && r.Namespace == storage.DefaultNamespace
}

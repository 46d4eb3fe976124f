package simulator

import (
	"fmt"

	"github.com/docker/docker/pkg/namesgenerator"
	"github.com/docker/docker/pkg/stringid"
	"github.com/opencontainers/go-digest"
)

// newID는 도커 형식의 64자리 ID와 12자리 축약 ID를 생성합니다.
func newID() (string, string) {
	full := stringid.GenerateRandomID()
	return full, stringid.TruncateID(full)
}

// contentID는 같은 내용에 대해 항상 같은 이미지 ID를 만듭니다.
// 카탈로그 이미지는 어느 시뮬레이션에서 받아도 같은 ID를 가집니다.
func contentID(content string) (string, string) {
	full := digest.FromString(content).Encoded()
	return full, stringid.TruncateID(full)
}

// layerDigest는 이미지의 n번째 레이어를 나타내는 축약 ID입니다.
func layerDigest(imageHexID string, n int) string {
	full := digest.FromString(fmt.Sprintf("%s/layer/%d", imageHexID, n)).Encoded()
	return stringid.TruncateID(full)
}

// randomName은 사용 중이 아닌 도커 형식 컨테이너 이름을 고릅니다.
func randomName(taken func(string) (bool, error)) (string, error) {
	for retry := 0; ; retry++ {
		name := namesgenerator.GetRandomName(retry)
		exists, err := taken(name)
		if err != nil {
			return "", err
		}
		if !exists {
			return name, nil
		}
	}
}

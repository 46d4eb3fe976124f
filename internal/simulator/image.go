package simulator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dockersim/app/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	builtImageLayers = 4
	builtImageSize   = 25_600_000
	pushManifestSize = 1570
)

// ImageListOptions는 docker images 옵션입니다.
type ImageListOptions struct {
	All     bool
	Quiet   bool
	NoTrunc bool
	Filter  string // 저장소[:태그] 필터
}

// BuildOptions는 docker build 옵션입니다.
type BuildOptions struct {
	Context    string
	Tags       []string
	Dockerfile string
	NoCache    bool
}

// PullImage는 원격 저장소에서 이미지를 받아 로컬에 저장합니다.
func (s *Simulator) PullImage(ctx context.Context, simulationID, raw string) (*Output, error) {
	s.logger.Info("Pulling image",
		zap.String("simulation_id", simulationID),
		zap.String("image", raw),
	)

	out := &Output{}
	err := s.repo.Transaction(ctx, func(tx *storage.Repository) error {
		_, err := s.pull(ctx, tx, simulationID, raw, out)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Simulator) pull(ctx context.Context, tx *storage.Repository, simulationID, raw string, out *Output) (*storage.Image, error) {
	ref, err := parseImageRef(raw)
	if err != nil {
		return nil, NewError("pull", KindImage, raw, ErrInvalidReference)
	}

	if ref.ImplicitTag {
		out.printf("Using default tag: %s", ref.Tag)
	}
	out.printf("%s: Pulling from %s", ref.Tag, ref.Path())

	local, err := tx.FindImageByRef(ctx, simulationID, storage.ImageLocationLocal, ref.Namespace, ref.Name, ref.Tag)
	if err == nil {
		out.printf("Digest: sha256:%s", local.HexID)
		out.printf("Status: Image is up to date for %s", ref.Familiar())
		out.println(ref.Canonical())
		return local, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, internalError("pull", KindImage, err)
	}

	remote, err := s.findRemote(ctx, tx, simulationID, ref)
	if err != nil {
		return nil, err
	}

	for i := 0; i < remote.Layers; i++ {
		out.printf("%s: Pull complete", layerDigest(remote.HexID, i))
	}
	out.printf("Digest: sha256:%s", remote.HexID)
	out.printf("Status: Downloaded newer image for %s", ref.Familiar())
	out.println(ref.Canonical())

	img := &storage.Image{
		SimulationID: simulationID,
		HexID:        remote.HexID,
		ShortID:      remote.ShortID,
		Domain:       ref.Domain,
		Namespace:    ref.Namespace,
		Name:         ref.Name,
		Tag:          ref.Tag,
		Location:     storage.ImageLocationLocal,
		Layers:       remote.Layers,
		Size:         remote.Size,
		CreatedAt:    remote.CreatedAt,
	}
	if err := tx.CreateImage(ctx, img); err != nil {
		return nil, internalError("pull", KindImage, err)
	}
	out.changed(KindImage, img.ShortID, ref.Familiar())
	return img, nil
}

// findRemote는 공식 이미지는 카탈로그에서, 사용자 이미지는 push된 원격 사본에서 찾습니다.
func (s *Simulator) findRemote(ctx context.Context, tx *storage.Repository, simulationID string, ref imageRef) (*storage.Image, error) {
	if ref.official() {
		hub, ok := s.catalog.Lookup(ref.Name)
		if !ok || !hub.HasTag(ref.Tag) {
			return nil, NewError("pull", KindImage, ref.Name, ErrRepositoryNotFound)
		}
		hexID, shortID := catalogImageID(hub.Name, ref.Tag)
		return &storage.Image{
			HexID:     hexID,
			ShortID:   shortID,
			Layers:    hub.Layers,
			Size:      hub.Size,
			CreatedAt: s.now(),
		}, nil
	}

	remote, err := tx.FindImageByRef(ctx, simulationID, storage.ImageLocationHub, ref.Namespace, ref.Name, ref.Tag)
	if err != nil {
		return nil, translate("pull", KindImage, ref.Path(), err, ErrRepositoryNotFound)
	}
	return remote, nil
}

// resolveImage는 이름 또는 ID 접두사로 로컬 이미지를 찾습니다. byID는 ID로 찾았는지 여부입니다.
func (s *Simulator) resolveImage(ctx context.Context, tx *storage.Repository, op, simulationID, raw string) (img *storage.Image, byID bool, err error) {
	if ref, perr := parseImageRef(raw); perr == nil {
		found, ferr := tx.FindImageByRef(ctx, simulationID, storage.ImageLocationLocal, ref.Namespace, ref.Name, ref.Tag)
		if ferr == nil {
			return found, false, nil
		}
		if !errors.Is(ferr, gorm.ErrRecordNotFound) {
			return nil, false, internalError(op, KindImage, ferr)
		}
	}

	matches, err := tx.FindImagesByIDPrefix(ctx, simulationID, strings.TrimPrefix(raw, "sha256:"))
	if err != nil {
		return nil, false, internalError(op, KindImage, err)
	}
	if len(matches) == 0 {
		return nil, false, NewError(op, KindImage, raw, ErrImageNotFound)
	}
	for _, m := range matches[1:] {
		if m.HexID != matches[0].HexID {
			return nil, false, NewError(op, KindImage, raw, ErrAmbiguousReference)
		}
	}
	return &matches[0], true, nil
}

// ListImages는 로컬 이미지 목록을 docker images 형식으로 출력합니다.
func (s *Simulator) ListImages(ctx context.Context, simulationID string, opts ImageListOptions) (*Output, error) {
	images, err := s.repo.ListImages(ctx, simulationID, storage.ImageLocationLocal)
	if err != nil {
		return nil, internalError("images", KindImage, err)
	}

	if opts.Filter != "" {
		images = filterImages(images, opts.Filter)
	}

	out := &Output{}
	if opts.Quiet {
		seen := make(map[string]bool)
		for _, img := range images {
			if seen[img.HexID] {
				continue
			}
			seen[img.HexID] = true
			out.println(s.imageID(img, opts.NoTrunc))
		}
		return out, nil
	}

	t := newTable("REPOSITORY", "TAG", "IMAGE ID", "CREATED", "SIZE")
	now := s.now()
	for _, img := range images {
		t.row(img.Repository(), img.Tag, s.imageID(img, opts.NoTrunc), ago(now, img.CreatedAt), humanSize(img.Size))
	}
	out.println(t.lines()...)
	return out, nil
}

func (s *Simulator) imageID(img storage.Image, noTrunc bool) string {
	if noTrunc {
		return "sha256:" + img.HexID
	}
	return img.ShortID
}

func filterImages(images []storage.Image, filter string) []storage.Image {
	ref, err := parseImageRef(filter)
	if err != nil {
		return nil
	}
	repo := storage.Image{Domain: ref.Domain, Namespace: ref.Namespace, Name: ref.Name}.Repository()
	var out []storage.Image
	for _, img := range images {
		if img.Repository() != repo {
			continue
		}
		if !ref.ImplicitTag && img.Tag != ref.Tag {
			continue
		}
		out = append(out, img)
	}
	return out
}

// PushImage는 로컬 이미지를 원격 저장소로 올립니다. 공식(library) 저장소에는 올릴 수 없습니다.
func (s *Simulator) PushImage(ctx context.Context, simulationID, raw string) (*Output, error) {
	s.logger.Info("Pushing image",
		zap.String("simulation_id", simulationID),
		zap.String("image", raw),
	)

	ref, err := parseImageRef(raw)
	if err != nil {
		return nil, NewError("push", KindImage, raw, ErrInvalidReference)
	}

	out := &Output{}
	err = s.repo.Transaction(ctx, func(tx *storage.Repository) error {
		local, err := tx.FindImageByRef(ctx, simulationID, storage.ImageLocationLocal, ref.Namespace, ref.Name, ref.Tag)
		if err != nil {
			return translate("push", KindImage, ref.Familiar(), err, ErrImageNotFound)
		}
		if ref.official() {
			return NewError("push", KindImage, ref.Canonical(), ErrPushDenied)
		}

		out.printf("The push refers to repository [%s/%s]", ref.Domain, ref.Path())

		exists := false
		remote, err := tx.FindImageByRef(ctx, simulationID, storage.ImageLocationHub, ref.Namespace, ref.Name, ref.Tag)
		switch {
		case err == nil && remote.HexID == local.HexID:
			exists = true
		case err == nil:
			if err := tx.DeleteImage(ctx, remote.ID); err != nil {
				return internalError("push", KindImage, err)
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return internalError("push", KindImage, err)
		}

		for i := local.Layers - 1; i >= 0; i-- {
			if exists {
				out.printf("%s: Layer already exists", layerDigest(local.HexID, i))
			} else {
				out.printf("%s: Pushed", layerDigest(local.HexID, i))
			}
		}
		out.printf("%s: digest: sha256:%s size: %d", ref.Tag, local.HexID, pushManifestSize)

		if exists {
			return nil
		}
		pushed := *local
		pushed.ID = 0
		pushed.Location = storage.ImageLocationHub
		if err := tx.CreateImage(ctx, &pushed); err != nil {
			return internalError("push", KindImage, err)
		}
		out.changed(KindImage, local.ShortID, ref.Familiar())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveImages는 docker rmi를 수행합니다.
// 다른 태그가 남아 있으면 태그만 떼어내고, 마지막 참조일 때 이미지를 삭제합니다.
func (s *Simulator) RemoveImages(ctx context.Context, simulationID string, refs []string, force bool) (*Output, error) {
	s.logger.Info("Removing images",
		zap.String("simulation_id", simulationID),
		zap.Strings("images", refs),
		zap.Bool("force", force),
	)

	out := &Output{}
	for _, raw := range refs {
		err := s.repo.Transaction(ctx, func(tx *storage.Repository) error {
			return s.removeImage(ctx, tx, simulationID, raw, force, out)
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Simulator) removeImage(ctx context.Context, tx *storage.Repository, simulationID, raw string, force bool, out *Output) error {
	img, byID, err := s.resolveImage(ctx, tx, "rmi", simulationID, raw)
	if err != nil {
		return err
	}
	siblings, err := tx.ListImagesByHexID(ctx, simulationID, storage.ImageLocationLocal, img.HexID)
	if err != nil {
		return internalError("rmi", KindImage, err)
	}

	if !byID && len(siblings) > 1 {
		if err := tx.DeleteImage(ctx, img.ID); err != nil {
			return internalError("rmi", KindImage, err)
		}
		out.printf("Untagged: %s", img.Reference())
		out.changed(KindImage, img.ShortID, img.Reference())
		return nil
	}
	if byID && len(siblings) > 1 && !force {
		return NewError("rmi", KindImage, img.ShortID, ErrImageMultipleRefs)
	}

	users, err := s.imageUsers(ctx, tx, simulationID, img.HexID)
	if err != nil {
		return err
	}
	for _, c := range users {
		if !force || c.Status == storage.ContainerStatusRunning || c.Status == storage.ContainerStatusPaused {
			e := NewError("rmi", KindImage, raw, ErrImageInUse)
			e.State = c.ShortID
			return e
		}
	}

	for _, sib := range siblings {
		if !sib.Dangling() {
			out.printf("Untagged: %s", sib.Reference())
		}
		if err := tx.DeleteImage(ctx, sib.ID); err != nil {
			return internalError("rmi", KindImage, err)
		}
	}
	out.printf("Deleted: sha256:%s", img.HexID)
	out.changed(KindImage, img.ShortID, img.Reference())
	return nil
}

func (s *Simulator) imageUsers(ctx context.Context, tx *storage.Repository, simulationID, hexID string) ([]storage.Container, error) {
	containers, err := tx.ListContainers(ctx, simulationID)
	if err != nil {
		return nil, internalError("rmi", KindImage, err)
	}
	var users []storage.Container
	for _, c := range containers {
		if c.ImageHexID == hexID {
			users = append(users, c)
		}
	}
	return users, nil
}

// TagImage는 원본 이미지에 새 이름을 붙입니다.
func (s *Simulator) TagImage(ctx context.Context, simulationID, source, target string) (*Output, error) {
	s.logger.Info("Tagging image",
		zap.String("simulation_id", simulationID),
		zap.String("source", source),
		zap.String("target", target),
	)

	ref, err := parseImageRef(target)
	if err != nil {
		return nil, NewError("tag", KindImage, target, ErrInvalidReference)
	}

	out := &Output{}
	err = s.repo.Transaction(ctx, func(tx *storage.Repository) error {
		img, _, err := s.resolveImage(ctx, tx, "tag", simulationID, source)
		if err != nil {
			return err
		}
		if err := s.assignTag(ctx, tx, simulationID, img, ref); err != nil {
			return err
		}
		out.changed(KindImage, img.ShortID, ref.Familiar())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// assignTag는 ref를 img에 붙입니다. ref가 다른 이미지에 붙어 있었다면 그 이미지에서 떼어냅니다.
func (s *Simulator) assignTag(ctx context.Context, tx *storage.Repository, simulationID string, img *storage.Image, ref imageRef) error {
	existing, err := tx.FindImageByRef(ctx, simulationID, storage.ImageLocationLocal, ref.Namespace, ref.Name, ref.Tag)
	switch {
	case err == nil && existing.HexID == img.HexID:
		return nil
	case err == nil:
		siblings, err := tx.ListImagesByHexID(ctx, simulationID, storage.ImageLocationLocal, existing.HexID)
		if err != nil {
			return internalError("tag", KindImage, err)
		}
		if len(siblings) > 1 {
			err = tx.DeleteImage(ctx, existing.ID)
		} else {
			err = tx.UntagImage(ctx, existing.ID)
		}
		if err != nil {
			return internalError("tag", KindImage, err)
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return internalError("tag", KindImage, err)
	}

	if img.Dangling() {
		// 태그 없는 이미지에 처음 이름을 붙이는 경우 행을 재사용합니다.
		if err := tx.DeleteImage(ctx, img.ID); err != nil {
			return internalError("tag", KindImage, err)
		}
	}

	tagged := *img
	tagged.ID = 0
	tagged.Domain = ref.Domain
	tagged.Namespace = ref.Namespace
	tagged.Name = ref.Name
	tagged.Tag = ref.Tag
	tagged.Location = storage.ImageLocationLocal
	if err := tx.CreateImage(ctx, &tagged); err != nil {
		return internalError("tag", KindImage, err)
	}
	return nil
}

// BuildImage는 빌드 컨텍스트로부터 새 이미지를 만든 것처럼 기록합니다.
// -t로 지정한 태그가 이미 있으면 이전 이미지는 태그를 잃고 <none>이 됩니다.
func (s *Simulator) BuildImage(ctx context.Context, simulationID string, opts BuildOptions) (*Output, error) {
	s.logger.Info("Building image",
		zap.String("simulation_id", simulationID),
		zap.String("context", opts.Context),
		zap.Strings("tags", opts.Tags),
	)

	refs := make([]imageRef, 0, len(opts.Tags))
	for _, tag := range opts.Tags {
		ref, err := parseImageRef(tag)
		if err != nil {
			return nil, NewError("build", KindImage, tag, ErrInvalidReference)
		}
		refs = append(refs, ref)
	}
	dockerfile := opts.Dockerfile
	if dockerfile == "" {
		dockerfile = "Dockerfile"
	}

	hexID, shortID := newID()
	out := &Output{}
	err := s.repo.Transaction(ctx, func(tx *storage.Repository) error {
		img := &storage.Image{
			SimulationID: simulationID,
			HexID:        hexID,
			ShortID:      shortID,
			Namespace:    "",
			Name:         storage.NoneTag,
			Tag:          storage.NoneTag,
			Location:     storage.ImageLocationLocal,
			Layers:       builtImageLayers,
			Size:         builtImageSize,
			CreatedAt:    s.now(),
		}
		if err := tx.CreateImage(ctx, img); err != nil {
			return internalError("build", KindImage, err)
		}

		steps := 4 + len(refs)
		out.printf("[+] Building 1.2s (%d/%d) FINISHED", steps, steps)
		out.printf(" => [internal] load build definition from %s", dockerfile)
		out.println(" => [internal] load .dockerignore")
		out.printf(" => [internal] load build context (%s)", opts.Context)
		if opts.NoCache {
			out.println(" => [1/2] FROM docker.io/library/alpine:latest (no cache)")
		} else {
			out.println(" => CACHED [1/2] FROM docker.io/library/alpine:latest")
		}
		out.println(" => exporting to image")
		out.printf(" => => writing image sha256:%s", hexID)

		current := img
		for _, ref := range refs {
			if err := s.assignTag(ctx, tx, simulationID, current, ref); err != nil {
				return err
			}
			tagged, err := tx.FindImageByRef(ctx, simulationID, storage.ImageLocationLocal, ref.Namespace, ref.Name, ref.Tag)
			if err != nil {
				return internalError("build", KindImage, err)
			}
			current = tagged
			out.printf(" => => naming to %s", ref.Canonical())
		}
		out.changed(KindImage, shortID, current.Reference())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ImageHistory는 이미지 레이어 이력을 출력합니다.
func (s *Simulator) ImageHistory(ctx context.Context, simulationID, raw string, noTrunc bool) (*Output, error) {
	img, _, err := s.resolveImage(ctx, s.repo, "history", simulationID, raw)
	if err != nil {
		return nil, err
	}

	hub, official := s.catalog.ByImageID(img.HexID)
	now := s.now()
	t := newTable("IMAGE", "CREATED", "CREATED BY", "SIZE", "COMMENT")
	for i := 0; i < img.Layers; i++ {
		id := "<missing>"
		if i == 0 {
			id = img.ShortID
		}

		var createdBy string
		var size int64
		switch {
		case i == 0 && official:
			createdBy = fmt.Sprintf("CMD [%s]", quoteArgs(hub.Command))
		case i == 0:
			createdBy = `CMD ["/bin/sh"]`
		case i == img.Layers-1:
			createdBy = fmt.Sprintf("/bin/sh -c #(nop) ADD file:%s in / ", layerDigest(img.HexID, i))
			size = img.Size - int64(img.Layers-1)*layerShare(img)
		default:
			createdBy = fmt.Sprintf("RUN /bin/sh -c set -eux; layer %s", layerDigest(img.HexID, i))
			size = layerShare(img)
		}
		if !noTrunc {
			createdBy = truncate(createdBy, 45)
		}
		t.row(id, ago(now, img.CreatedAt), createdBy, humanSize(size), "")
	}

	out := &Output{}
	out.println(t.lines()...)
	return out, nil
}

func layerShare(img *storage.Image) int64 {
	if img.Layers <= 1 {
		return 0
	}
	return img.Size / int64(img.Layers*2)
}

func quoteArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = fmt.Sprintf("%q", a)
	}
	return strings.Join(quoted, " ")
}

// InspectImages는 이미지 상세 정보를 JSON으로 출력합니다.
func (s *Simulator) InspectImages(ctx context.Context, simulationID string, refs []string) (*Output, error) {
	var docs []imageInspect
	for _, raw := range refs {
		img, _, err := s.resolveImage(ctx, s.repo, "inspect", simulationID, raw)
		if err != nil {
			return nil, err
		}
		siblings, err := s.repo.ListImagesByHexID(ctx, simulationID, storage.ImageLocationLocal, img.HexID)
		if err != nil {
			return nil, internalError("inspect", KindImage, err)
		}
		docs = append(docs, s.inspectImage(img, siblings))
	}
	return jsonOutput(docs)
}

// PruneImages는 사용하지 않는 이미지를 삭제합니다. all이 false면 태그 없는 이미지만 대상입니다.
func (s *Simulator) PruneImages(ctx context.Context, simulationID string, all bool) (*Output, error) {
	s.logger.Info("Pruning images",
		zap.String("simulation_id", simulationID),
		zap.Bool("all", all),
	)

	out := &Output{}
	var deleted []string
	var total int64
	err := s.repo.Transaction(ctx, func(tx *storage.Repository) error {
		images, err := tx.ListImages(ctx, simulationID, storage.ImageLocationLocal)
		if err != nil {
			return internalError("prune", KindImage, err)
		}
		containers, err := tx.ListContainers(ctx, simulationID)
		if err != nil {
			return internalError("prune", KindImage, err)
		}
		used := make(map[string]bool)
		for _, c := range containers {
			used[c.ImageHexID] = true
		}

		groups := make(map[string][]storage.Image)
		var order []string
		for _, img := range images {
			if _, ok := groups[img.HexID]; !ok {
				order = append(order, img.HexID)
			}
			groups[img.HexID] = append(groups[img.HexID], img)
		}

		for _, hexID := range order {
			refs := groups[hexID]
			if used[hexID] {
				continue
			}
			if !all && !allDangling(refs) {
				continue
			}
			for _, ref := range refs {
				if !ref.Dangling() {
					deleted = append(deleted, "untagged: "+ref.Reference())
				}
				if err := tx.DeleteImage(ctx, ref.ID); err != nil {
					return internalError("prune", KindImage, err)
				}
			}
			deleted = append(deleted, "deleted: sha256:"+hexID)
			total += refs[0].Size
			out.changed(KindImage, refs[0].ShortID, refs[0].Reference())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(deleted) > 0 {
		out.println("Deleted Images:")
		out.println(deleted...)
		out.println("")
	}
	out.println(reclaimed(total))
	return out, nil
}

func allDangling(images []storage.Image) bool {
	for _, img := range images {
		if !img.Dangling() {
			return false
		}
	}
	return true
}

package pkg

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrFileTooLarge      = errors.New("file too large")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// sniffLen 足够 mimetype 识别常见音视频和图片格式
const sniffLen = 3072

// UploadKind 描述一类上传文件的存放目录、文件名前缀和允许的格式
type UploadKind struct {
	Dir     string
	Prefix  string
	Allowed []string
	MaxSize int64
}

var (
	videoMIMEs = []string{
		"video/mp4", "video/quicktime", "video/x-msvideo", "video/x-ms-wmv",
		"video/webm", "video/mpeg", "video/x-matroska",
	}
	imageMIMEs = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}
)

func FilmUpload(maxSize int64) UploadKind {
	return UploadKind{Dir: "films", Prefix: "film", Allowed: videoMIMEs, MaxSize: maxSize}
}

func PosterUpload(maxSize int64) UploadKind {
	return UploadKind{Dir: "posters", Prefix: "poster", Allowed: imageMIMEs, MaxSize: maxSize}
}

func ThumbnailUpload(maxSize int64) UploadKind {
	return UploadKind{Dir: "thumbnails", Prefix: "thumb", Allowed: imageMIMEs, MaxSize: maxSize}
}

type StoredFile struct {
	Path string // 磁盘路径
	URL  string // 对外访问路径，如 /uploads/films/film_xxx.mp4
	MIME string
	Size int64
}

// Storage 把上传文件落到本地磁盘
type Storage struct {
	root      string
	urlPrefix string
}

func NewStorage(root, urlPrefix string) *Storage {
	return &Storage{root: root, urlPrefix: strings.TrimRight(urlPrefix, "/")}
}

func (s *Storage) Root() string { return s.root }

// Save 校验大小和真实格式后写盘；任何失败都不会留下半个文件
func (s *Storage) Save(fh *multipart.FileHeader, kind UploadKind) (*StoredFile, error) {
	if kind.MaxSize > 0 && fh.Size > kind.MaxSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrFileTooLarge, fh.Filename, kind.MaxSize)
	}
	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	head = head[:n]
	mt := mimetype.Detect(head)
	if !allowed(mt, kind.Allowed) {
		return nil, fmt.Errorf("%w: %s (%s)", ErrUnsupportedFormat, fh.Filename, mt.String())
	}

	// 扩展名只取自嗅探结果，静态目录按扩展名决定 Content-Type
	name := fmt.Sprintf("%s_%s%s", kind.Prefix, uuid.NewString(), mt.Extension())
	dir := filepath.Join(s.root, kind.Dir)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	dst := filepath.Join(dir, name)
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, err
	}

	body := io.MultiReader(bytes.NewReader(head), src)
	if kind.MaxSize > 0 {
		body = io.LimitReader(body, kind.MaxSize+1)
	}
	written, err := io.Copy(out, body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil && kind.MaxSize > 0 && written > kind.MaxSize {
		err = fmt.Errorf("%w: %s exceeds %d bytes", ErrFileTooLarge, fh.Filename, kind.MaxSize)
	}
	if err != nil {
		_ = os.Remove(dst)
		return nil, err
	}

	return &StoredFile{
		Path: dst,
		URL:  path.Join(s.urlPrefix, kind.Dir, name),
		MIME: mt.String(),
		Size: written,
	}, nil
}

// Locate 把 Save 返回的 URL 映射回磁盘文件；不属于本存储的 URL 返回 false
func (s *Storage) Locate(url string) (*StoredFile, bool) {
	rel, ok := strings.CutPrefix(url, s.urlPrefix+"/")
	if !ok {
		return nil, false
	}
	rel = path.Clean(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") || path.IsAbs(rel) {
		return nil, false
	}
	return &StoredFile{Path: filepath.Join(s.root, filepath.FromSlash(rel)), URL: url}, true
}

// Remove 删除给定文件，不存在的忽略
func (s *Storage) Remove(files ...*StoredFile) {
	for _, f := range files {
		if f != nil {
			_ = os.Remove(f.Path)
		}
	}
}

func allowed(mt *mimetype.MIME, list []string) bool {
	for _, m := range list {
		if mt.Is(m) {
			return true
		}
	}
	return false
}

package storage

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sh3r4rd/file_analysis/internal/model"
)

var (
	// ErrCapabilityInvalid is returned when a presigned PUT does not carry a
	// signature issued by this store.
	ErrCapabilityInvalid = errors.New("storage: capability signature invalid")
	// ErrCapabilityExpired is returned for a correctly signed but stale PUT.
	ErrCapabilityExpired = errors.New("storage: capability expired")
	// ErrContentTypeMismatch is returned when the PUT Content-Type differs
	// from the one the capability was bound to.
	ErrContentTypeMismatch = errors.New("storage: content type does not match capability")
)

// ObjectCreatedFunc is notified after an object under UploadsPrefix is written.
type ObjectCreatedFunc func(ctx context.Context, key string)

// MemoryStore keeps objects in process memory and signs capabilities with an
// HMAC so the local HTTP server can accept direct uploads. It stands in for S3
// during development and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	objects     map[string]Object
	subscribers []ObjectCreatedFunc

	baseURL string
	secret  []byte
	maxSize int64
	now     func() time.Time
}

// NewMemoryStore constructs a store whose presigned URLs point at
// {baseURL}/objects/{key}.
func NewMemoryStore(baseURL string, secret []byte, maxSize int64) *MemoryStore {
	if maxSize <= 0 {
		maxSize = model.MaxFileSizeBytes
	}
	return &MemoryStore{
		objects: make(map[string]Object),
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  append([]byte(nil), secret...),
		maxSize: maxSize,
		now:     time.Now,
	}
}

// WithClock overrides the time source used to check capability expiry.
func (m *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	m.now = now
	return m
}

// Subscribe registers fn for object-created notifications on raw uploads.
func (m *MemoryStore) Subscribe(fn ObjectCreatedFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

// MaxSize is the largest object the store accepts or returns.
func (m *MemoryStore) MaxSize() int64 {
	return m.maxSize
}

func (m *MemoryStore) PresignPut(ctx context.Context, capability model.Capability) (string, error) {
	if capability.ResourceKey == "" {
		return "", errors.New("storage: capability without resource key")
	}
	base, err := url.Parse(m.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse public url: %w", err)
	}
	expires := strconv.FormatInt(capability.Expiry.Unix(), 10)
	// JoinPath unescapes its arguments, so each key segment is escaped first.
	segments := []string{"objects"}
	for _, s := range strings.Split(capability.ResourceKey, "/") {
		segments = append(segments, url.PathEscape(s))
	}
	u := base.JoinPath(segments...)
	q := url.Values{}
	q.Set("expires", expires)
	q.Set("contentType", capability.AllowedContentType)
	q.Set("signature", m.sign(capability.ResourceKey, expires, capability.AllowedContentType))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// VerifyPut checks a direct upload against the query string of its presigned
// URL and the Content-Type the client sent.
func (m *MemoryStore) VerifyPut(key string, query url.Values, contentType string) error {
	expires := query.Get("expires")
	allowed := query.Get("contentType")
	want := m.sign(key, expires, allowed)
	if !hmac.Equal([]byte(want), []byte(query.Get("signature"))) {
		return ErrCapabilityInvalid
	}
	unix, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return ErrCapabilityInvalid
	}
	if !m.now().Before(time.Unix(unix, 0)) {
		return ErrCapabilityExpired
	}
	if contentType != allowed {
		return ErrContentTypeMismatch
	}
	return nil
}

func (m *MemoryStore) sign(key, expires, contentType string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(key + "\n" + expires + "\n" + contentType))
	return hex.EncodeToString(mac.Sum(nil))
}

func (m *MemoryStore) Get(ctx context.Context, key string) (Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return Object{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if int64(len(obj.Data)) > m.maxSize {
		return Object{}, fmt.Errorf("%w: %s", ErrObjectTooLarge, key)
	}
	obj.Data = append([]byte(nil), obj.Data...)
	return obj, nil
}

func (m *MemoryStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return errors.New("storage: empty key")
	}
	if int64(len(data)) > m.maxSize {
		return fmt.Errorf("%w: %s", ErrObjectTooLarge, key)
	}
	m.mu.Lock()
	m.objects[key] = Object{Key: key, ContentType: contentType, Data: append([]byte(nil), data...)}
	subscribers := append([]ObjectCreatedFunc(nil), m.subscribers...)
	m.mu.Unlock()

	if strings.HasPrefix(key, model.UploadsPrefix) {
		for _, fn := range subscribers {
			fn(ctx, key)
		}
	}
	return nil
}

func (m *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok, nil
}

var _ ObjectStore = (*MemoryStore)(nil)

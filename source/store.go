// Package source はソーステキストのバッファを内容アドレス（SHA-256）で管理するパッケージ。
// 同じ内容のテキストは何度読み込んでも同じ *Buffer を共有する（インターン化）。
// パーサーが作る Span はすべてこのパッケージの Buffer を参照し、テキストをコピーしない。
package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Hash はバッファ内容の SHA-256 ダイジェスト。バッファの同一性はこの値で決まる。
type Hash [sha256.Size]byte

func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// Buffer は不変のソーステキスト。
// Origin は読み込み元のファイルパスで、スニペットの場合は空文字列。
// 生成後に変更されることはない。
type Buffer struct {
	Hash   Hash
	Origin string
	Name   string // Origin のファイル名部分
	Text   string
}

// Len はバッファのバイト長を返す。
func (b *Buffer) Len() int { return len(b.Text) }

// Label は診断メッセージ用の名前を返す。Origin がなければ "<snippet>"。
func (b *Buffer) Label() string {
	if b.Origin == "" {
		return "<snippet>"
	}
	return b.Origin
}

// Store はハッシュから Buffer への登録簿。
// 登録は単調増加のみで、削除APIは持たない。
// 検索と挿入は1つのミューテックスで守られるので、
// 同じ内容を並行に読み込んでも必ず1つの Buffer に収束する。
type Store struct {
	mu      sync.Mutex
	buffers map[Hash]*Buffer
	logger  *slog.Logger
}

// Option は Store の設定を変更する関数。
type Option func(*Store)

// WithLogger はインターン化のヒット/ミスを記録するロガーを設定する。
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore は空の Store を生成する。
func NewStore(opts ...Option) *Store {
	s := &Store{
		buffers: make(map[Hash]*Buffer),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load はバイト列をインターン化する。
// 同じ内容が既に登録されていればそのバッファを返し、なければ新しく登録する。
// 既存のバッファの Origin は最初に登録したものが残る。
func (s *Store) Load(data []byte, origin string) *Buffer {
	h := Hash(sha256.Sum256(data))

	s.mu.Lock()
	defer s.mu.Unlock()

	if buf, ok := s.buffers[h]; ok {
		s.logger.Debug("intern hit", slog.String("hash", h.String()[:12]), slog.String("origin", origin))
		return buf
	}

	buf := &Buffer{Hash: h, Origin: origin, Text: string(data)}
	if origin != "" {
		buf.Name = filepath.Base(origin)
	}
	s.buffers[h] = buf
	s.logger.Debug("intern miss", slog.String("hash", h.String()[:12]), slog.String("origin", origin), slog.Int("size", len(data)))
	return buf
}

// RegisterSnippet はファイルに由来しないテキスト（REPL入力やテスト）を登録する。
func (s *Store) RegisterSnippet(text string) *Buffer {
	return s.Load([]byte(text), "")
}

// LoadFile はファイルを読み込んで登録する。
// 読み込みに失敗した場合は何も登録せずにエラーを返す。
func (s *Store) LoadFile(path string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("source: read %s: %w", path, err)
	}
	return s.Load(data, path), nil
}

// LoadFiles は複数のファイルを並行に読み込む。
// 結果は paths と同じ順序で返る。1つでも失敗すれば最初のエラーを返す。
func (s *Store) LoadFiles(ctx context.Context, paths []string) ([]*Buffer, error) {
	bufs := make([]*Buffer, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			buf, err := s.LoadFile(path)
			if err != nil {
				return err
			}
			bufs[i] = buf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return bufs, nil
}

// Lookup はハッシュから登録済みのバッファを探す。
func (s *Store) Lookup(h Hash) (*Buffer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf, ok := s.buffers[h]
	return buf, ok
}

// Len は登録済みバッファの数を返す。
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buffers)
}

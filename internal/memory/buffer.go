package memory

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
)

// Buffer is the sliding window of recent turns kept by the client. Storage
// failures never reach the caller: a broken store reads as an empty conversation.
type Buffer struct {
	storage Storage
	logger  zerolog.Logger
}

func NewBuffer(storage Storage, logger zerolog.Logger) *Buffer {
	return &Buffer{storage: storage, logger: logger.With().Str("component", "memory").Logger()}
}

// Load returns the stored memory, or an empty one when nothing usable is stored.
func (b *Buffer) Load(ctx context.Context) Memory {
	mem, err := b.read(ctx)
	if err != nil {
		b.logger.Warn().Err(err).Msg("memory read failed")
	}
	return mem
}

// read distinguishes a failing store from missing or unparseable data.
func (b *Buffer) read(ctx context.Context) (Memory, error) {
	raw, ok, err := b.storage.Get(ctx, Key)
	if err != nil {
		return Empty(), err
	}
	if !ok {
		return Empty(), nil
	}
	var mem Memory
	if err := sonic.UnmarshalString(raw, &mem); err != nil {
		b.logger.Warn().Err(err).Msg("stored memory unreadable, starting fresh")
		return Empty(), nil
	}
	if mem.Turns == nil {
		mem.Turns = []Turn{}
	}
	return mem, nil
}

// Save persists mem as given.
func (b *Buffer) Save(ctx context.Context, mem Memory) {
	if mem.Turns == nil {
		mem.Turns = []Turn{}
	}
	raw, err := sonic.MarshalString(mem)
	if err != nil {
		b.logger.Warn().Err(err).Msg("memory encode failed")
		return
	}
	if err := b.storage.Set(ctx, Key, raw); err != nil {
		b.logger.Warn().Err(err).Msg("memory write failed")
	}
}

// Append adds a turn, drops the oldest beyond MaxTurns, persists and returns the result.
// When the store cannot be read the stored value is left alone.
func (b *Buffer) Append(ctx context.Context, role, content string) Memory {
	mem, err := b.read(ctx)
	mem.Turns = append(mem.Turns, Turn{Role: role, Content: content})
	if len(mem.Turns) > MaxTurns {
		mem.Turns = append([]Turn(nil), mem.Turns[len(mem.Turns)-MaxTurns:]...)
	}
	if err != nil {
		b.logger.Warn().Err(err).Msg("memory read failed, turn not persisted")
		return mem
	}
	b.Save(ctx, mem)
	return mem
}

// Clear forgets the conversation.
func (b *Buffer) Clear(ctx context.Context) {
	if err := b.storage.Remove(ctx, Key); err != nil {
		b.logger.Warn().Err(err).Msg("memory clear failed")
	}
}

func (b *Buffer) Close() error {
	return b.storage.Close()
}

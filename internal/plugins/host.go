package plugins

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	extism "github.com/extism/go-sdk"

	"github.com/quill-sh/quill/internal/events"
)

// Host functions are exported to guests under this import namespace.
const hostNamespace = "quill"

// KVStore is a per-plugin in-memory key-value store. Plugins never see
// each other's keys.
type KVStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewKVStore returns an empty store.
func NewKVStore() *KVStore {
	return &KVStore{data: make(map[string][]byte)}
}

// Get returns the stored value and whether the key exists.
func (s *KVStore) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// Set stores a value under key, replacing any previous value.
func (s *KVStore) Set(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// hostEnv is one plugin's view of the host: its scoped KV store, the
// shared event bus, its config block, and a logger tagged with its name.
type hostEnv struct {
	bus    *events.Bus
	kv     *KVStore
	config map[string]string
	log    *slog.Logger
}

func newHostEnv(pluginName string, bus *events.Bus, kv *KVStore, config map[string]string) *hostEnv {
	return &hostEnv{
		bus:    bus,
		kv:     kv,
		config: config,
		log:    slog.With("plugin", pluginName),
	}
}

// functions builds the host function table exported to the guest.
func (h *hostEnv) functions() []extism.HostFunction {
	ptr := []extism.ValueType{extism.ValueTypePTR}
	fns := []extism.HostFunction{
		extism.NewHostFunctionWithStack("log", h.hostLog, ptr, nil),
		extism.NewHostFunctionWithStack("kv_get", h.hostKVGet, ptr, ptr),
		extism.NewHostFunctionWithStack("kv_set", h.hostKVSet, ptr, nil),
		extism.NewHostFunctionWithStack("emit_event", h.hostEmitEvent, ptr, nil),
		extism.NewHostFunctionWithStack("get_config", h.hostGetConfig, ptr, ptr),
	}
	for i := range fns {
		fns[i].SetNamespace(hostNamespace)
	}
	return fns
}

// hostLog routes guest log lines into the host's structured logger.
// Input: {"level": "...", "message": "..."}.
func (h *hostEnv) hostLog(_ context.Context, p *extism.CurrentPlugin, stack []uint64) {
	var msg struct {
		Level   string `json:"level"`
		Message string `json:"message"`
	}
	if !h.readJSON(p, stack[0], "log", &msg) {
		return
	}
	switch msg.Level {
	case "debug":
		h.log.Debug(msg.Message)
	case "warn":
		h.log.Warn(msg.Message)
	case "error":
		h.log.Error(msg.Message)
	default:
		h.log.Info(msg.Message)
	}
}

// hostKVGet takes a key string and returns the stored value, or "{}" for
// a missing key so guests can unmarshal unconditionally.
func (h *hostEnv) hostKVGet(_ context.Context, p *extism.CurrentPlugin, stack []uint64) {
	key, err := p.ReadString(stack[0])
	if err != nil {
		h.log.Error("kv_get: read key", "error", err)
		stack[0] = 0
		return
	}
	value, ok := h.kv.Get(key)
	if !ok {
		value = []byte("{}")
	}
	h.reply(p, stack, value, "kv_get")
}

// hostKVSet takes {"key": "...", "value": "..."}.
func (h *hostEnv) hostKVSet(_ context.Context, p *extism.CurrentPlugin, stack []uint64) {
	var req struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if !h.readJSON(p, stack[0], "kv_set", &req) {
		return
	}
	h.kv.Set(req.Key, []byte(req.Value))
}

// hostEmitEvent publishes a guest event on the bus.
// Input: {"type": "...", "payload": {...}}.
func (h *hostEnv) hostEmitEvent(_ context.Context, p *extism.CurrentPlugin, stack []uint64) {
	var ev struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	if !h.readJSON(p, stack[0], "emit_event", &ev) {
		return
	}
	h.bus.Publish(events.NewEvent(events.EventType(ev.Type), events.SourcePlugin, ev.Payload))
}

// hostGetConfig returns the manifest config value for a key ("" when unset).
func (h *hostEnv) hostGetConfig(_ context.Context, p *extism.CurrentPlugin, stack []uint64) {
	key, err := p.ReadString(stack[0])
	if err != nil {
		h.log.Error("get_config: read key", "error", err)
		stack[0] = 0
		return
	}
	h.reply(p, stack, []byte(h.config[key]), "get_config")
}

// readJSON reads and unmarshals the guest's input block; failures are
// logged and reported as false so the host call becomes a no-op.
func (h *hostEnv) readJSON(p *extism.CurrentPlugin, offset uint64, fn string, v any) bool {
	input, err := p.ReadBytes(offset)
	if err != nil {
		h.log.Error(fn+": read input", "error", err)
		return false
	}
	if err := json.Unmarshal(input, v); err != nil {
		h.log.Warn(fn+": invalid input", "raw", string(input))
		return false
	}
	return true
}

// reply writes a result block back into guest memory and puts its offset
// on the stack; on failure the guest sees a null pointer.
func (h *hostEnv) reply(p *extism.CurrentPlugin, stack []uint64, value []byte, fn string) {
	offset, err := p.WriteBytes(value)
	if err != nil {
		h.log.Error(fn+": write result", "error", err)
		stack[0] = 0
		return
	}
	stack[0] = offset
}

package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/extism/go-pdk"
)

// Host functions from the quill namespace. kv_get takes a key and
// returns JSON (or "{}" when the key is unset); kv_set takes a JSON
// {"key": ..., "value": ...} payload.

//go:wasmimport quill kv_get
func hostKVGet(keyOffset uint64) uint64

//go:wasmimport quill kv_set
func hostKVSet(reqOffset uint64)

const storageKey = "notes"

type note struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

type notebook struct {
	Notes  []note `json:"notes"`
	NextID int    `json:"next_id"`
}

func loadNotes() *notebook {
	mem := pdk.AllocateString(storageKey)
	defer mem.Free()

	offset := hostKVGet(mem.Offset())
	if offset == 0 {
		return &notebook{NextID: 1}
	}
	data := pdk.FindMemory(offset).ReadBytes()

	var list notebook
	if err := json.Unmarshal(data, &list); err != nil || list.NextID == 0 {
		return &notebook{NextID: 1}
	}
	return &list
}

func saveNotes(list *notebook) {
	value, _ := json.Marshal(list)
	payload, _ := json.Marshal(map[string]string{
		"key":   storageKey,
		"value": string(value),
	})

	mem := pdk.AllocateBytes(payload)
	defer mem.Free()
	hostKVSet(mem.Offset())
}

type addInput struct {
	Text string `json:"text"`
}

//export note_add
func noteAdd() int32 {
	var req addInput
	if err := json.Unmarshal(pdk.Input(), &req); err != nil {
		return fail("invalid input: " + err.Error())
	}
	if req.Text == "" {
		return fail("text is required")
	}

	list := loadNotes()
	n := note{
		ID:   strconv.Itoa(list.NextID),
		Text: req.Text,
	}
	list.Notes = append(list.Notes, n)
	list.NextID++
	saveNotes(list)

	return emit(map[string]any{"status": "saved", "note": n})
}

//export note_list
func listNotes() int32 {
	list := loadNotes()
	return emit(map[string]any{"notes": list.Notes, "count": len(list.Notes)})
}

type removeInput struct {
	ID string `json:"id"`
}

//export note_remove
func noteRemove() int32 {
	var req removeInput
	if err := json.Unmarshal(pdk.Input(), &req); err != nil {
		return fail("invalid input: " + err.Error())
	}
	if req.ID == "" {
		return fail("id is required")
	}

	list := loadNotes()
	for i := range list.Notes {
		if list.Notes[i].ID == req.ID {
			removed := list.Notes[i]
			list.Notes = append(list.Notes[:i], list.Notes[i+1:]...)
			saveNotes(list)
			return emit(map[string]any{"status": "removed", "note": removed})
		}
	}
	return fail(fmt.Sprintf("note %s not found", req.ID))
}

func emit(v any) int32 {
	out, _ := json.Marshal(v)
	pdk.Output(out)
	return 0
}

func fail(msg string) int32 {
	out, _ := json.Marshal(map[string]string{"error": msg})
	pdk.Output(out)
	return 1
}

func main() {}

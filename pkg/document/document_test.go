package document

import (
	"testing"
	"time"

	"pdf-chat-client/pkg/ragclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestFromEntry(t *testing.T) {
	doc := FromEntry(ragclient.DocumentEntry{
		DocId:      "d1",
		Filename:   "report.pdf",
		UploadedAt: "2025-03-04T10:11:12.123456",
		Status:     "ready",
		Size:       1024,
		Pages:      intPtr(7),
	})

	assert.Equal(t, ConfirmedRef("d1"), doc.Ref)
	assert.Equal(t, "report.pdf", doc.Name)
	assert.Equal(t, StatusReady, doc.Status)
	assert.Equal(t, int64(1024), doc.Size)
	assert.Equal(t, time.Date(2025, 3, 4, 10, 11, 12, 123456000, time.UTC), doc.UploadedAt)
	require.NotNil(t, doc.Pages)
	assert.Equal(t, 7, *doc.Pages)
	assert.Nil(t, doc.UploadProgress)
}

func TestParseStatus(t *testing.T) {
	assert.Equal(t, StatusReady, ParseStatus("ready"))
	assert.Equal(t, StatusFailed, ParseStatus("failed"))
	assert.Equal(t, StatusProcessing, ParseStatus("processing"))
	assert.Equal(t, StatusProcessing, ParseStatus("queued"))
}

func TestCollection_AddRejectsDuplicateID(t *testing.T) {
	c := NewCollection()
	require.NoError(t, c.Add(Document{Ref: ConfirmedRef("d1"), Name: "a.pdf"}))

	err := c.Add(Document{Ref: ConfirmedRef("d1"), Name: "b.pdf"})

	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Equal(t, 1, c.Len())
}

func TestCollection_PromoteReplacesInPlace(t *testing.T) {
	c := NewCollection()
	require.NoError(t, c.Add(Document{Ref: ConfirmedRef("d0"), Name: "first.pdf"}))
	require.NoError(t, c.Add(Document{Ref: PendingRef("temp-1"), Name: "new.pdf", Status: StatusProcessing}))
	require.NoError(t, c.Add(Document{Ref: ConfirmedRef("d2"), Name: "last.pdf"}))

	err := c.Promote("temp-1", Document{Ref: ConfirmedRef("srv-9"), Name: "new.pdf", Status: StatusProcessing})

	require.NoError(t, err)
	items := c.Items()
	require.Len(t, items, 3)
	assert.Equal(t, []string{"d0", "srv-9", "d2"}, []string{items[0].ID(), items[1].ID(), items[2].ID()})
	assert.False(t, items[1].Ref.Pending)
	_, ok := c.Find("temp-1")
	assert.False(t, ok)
}

func TestCollection_PromoteOntoExistingServerIDDropsPending(t *testing.T) {
	c := NewCollection()
	require.NoError(t, c.Add(Document{Ref: ConfirmedRef("srv-1"), Name: "same.pdf"}))
	require.NoError(t, c.Add(Document{Ref: PendingRef("temp-1"), Name: "same copy.pdf"}))

	err := c.Promote("temp-1", Document{Ref: ConfirmedRef("srv-1"), Name: "same copy.pdf"})

	assert.ErrorIs(t, err, ErrIDInUse)
	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "same.pdf", items[0].Name)
}

func TestCollection_PromoteRequiresPendingEntry(t *testing.T) {
	c := NewCollection()
	require.NoError(t, c.Add(Document{Ref: ConfirmedRef("d1")}))

	assert.ErrorIs(t, c.Promote("d1", Document{Ref: ConfirmedRef("d2")}), ErrNotPending)
	assert.ErrorIs(t, c.Promote("nope", Document{Ref: ConfirmedRef("d2")}), ErrNotFound)
}

func TestCollection_UpdateTouchesOnlyMatchingEntry(t *testing.T) {
	c := NewCollection()
	c.Reset([]Document{
		{Ref: ConfirmedRef("d1"), Status: StatusProcessing},
		{Ref: ConfirmedRef("d2"), Status: StatusProcessing},
	})

	ok := c.Update("d2", func(d *Document) { d.Status = StatusReady })

	require.True(t, ok)
	d1, _ := c.Find("d1")
	d2, _ := c.Find("d2")
	assert.Equal(t, StatusProcessing, d1.Status)
	assert.Equal(t, StatusReady, d2.Status)
	assert.False(t, c.Update("d3", func(d *Document) {}))
}

func TestCollection_ResetDropsRepeatedIDs(t *testing.T) {
	c := NewCollection()

	c.Reset([]Document{
		{Ref: ConfirmedRef("d1"), Name: "one.pdf"},
		{Ref: ConfirmedRef("d1"), Name: "dup.pdf"},
		{Ref: ConfirmedRef("d2"), Name: "two.pdf"},
	})

	require.Equal(t, 2, c.Len())
	assert.True(t, c.HasName("one.pdf"))
	assert.False(t, c.HasName("dup.pdf"))
}

func TestCollection_RemoveAndClear(t *testing.T) {
	c := NewCollection()
	c.Reset([]Document{{Ref: ConfirmedRef("d1")}, {Ref: ConfirmedRef("d2")}})

	assert.True(t, c.Remove("d1"))
	assert.False(t, c.Remove("d1"))
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Items())
}

func TestReady(t *testing.T) {
	docs := []Document{
		{Ref: ConfirmedRef("d1"), Status: StatusReady},
		{Ref: ConfirmedRef("d2"), Status: StatusProcessing},
		{Ref: ConfirmedRef("d3"), Status: StatusFailed},
		{Ref: ConfirmedRef("d4"), Status: StatusReady},
	}

	got := Ready(docs)

	require.Len(t, got, 2)
	assert.Equal(t, "d1", got[0].ID())
	assert.Equal(t, "d4", got[1].ID())
}

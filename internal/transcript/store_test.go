package transcript

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WhiteTorn/Wandero-Client-Simulation/internal/model"
)

func sampleSession() *model.Session {
	now := time.Now().UTC().Truncate(time.Second)
	return &model.Session{
		ID:        "sess-1",
		PersonaID: "budget_backpacker",
		Phase:     model.PhaseNegotiating,
		Messages: []model.Message{
			{
				ID:        "m1",
				SessionID: "sess-1",
				Direction: model.DirectionOutbound,
				Subject:   "Trip inquiry from Jake",
				Body:      "Hello, I am planning a trip.",
				CreatedAt: now,
			},
		},
		Shared:          map[model.InfoItem]bool{model.InfoBudget: true},
		PendingDetails:  []string{"student discount question"},
		InterestLevel:   0.6,
		AbandonmentRisk: 0.1,
		EventSeq:        7,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	orig := sampleSession()
	require.NoError(t, store.Save(orig))

	loaded, err := store.Load("sess-1")
	require.NoError(t, err)
	assert.Equal(t, orig, loaded)
}

func TestLoadMissing(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("ghost")
	assert.ErrorIs(t, err, model.ErrSessionNotFound)
}

func TestSaveOverwrites(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	s := sampleSession()
	require.NoError(t, store.Save(s))

	s.Phase = model.PhaseCompleted
	s.TerminalFlag = true
	s.Reason = model.ReasonBooked
	require.NoError(t, store.Save(s))

	loaded, err := store.Load(s.ID)
	require.NoError(t, err)
	assert.True(t, loaded.TerminalFlag)
	assert.Equal(t, model.PhaseCompleted, loaded.Phase)
}

func TestLoadAllSkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(sampleSession()))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644))

	sessions, err := store.LoadAll()
	assert.Error(t, err, "corrupt file is reported")
	require.Len(t, sessions, 1, "healthy transcripts still load")
	assert.Equal(t, "sess-1", sessions[0].ID)
}

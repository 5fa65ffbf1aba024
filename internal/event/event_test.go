package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeString(t *testing.T) {
	tests := []struct {
		want string
		typ  Type
	}{
		{want: "PassStarted", typ: PassStarted},
		{want: "TitleSetStarted", typ: TitleSetStarted},
		{want: "FileStarted", typ: FileStarted},
		{want: "FileProgress", typ: FileProgress},
		{want: "FileCompleted", typ: FileCompleted},
		{want: "FileSkipped", typ: FileSkipped},
		{want: "SourceUnavailable", typ: SourceUnavailable},
		{want: "DirCreated", typ: DirCreated},
		{want: "PlanEntry", typ: PlanEntry},
		{want: "VerifyStarted", typ: VerifyStarted},
		{want: "VerifyOK", typ: VerifyOK},
		{want: "VerifyFailed", typ: VerifyFailed},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.String())
		})
	}
}

func TestTypeStringUnknown(t *testing.T) {
	assert.Equal(t, "Unknown", Type(999).String())
	assert.Equal(t, "Unknown", Type(0).String())
	assert.Equal(t, "Unknown", Type(-1).String())
}

func TestPassString(t *testing.T) {
	assert.Equal(t, "metadata", PassMetadata.String())
	assert.Equal(t, "menu", PassMenu.String())
	assert.Equal(t, "title", PassTitle.String())
	assert.Equal(t, "none", Pass(0).String())
}

func TestEventZeroValue(t *testing.T) {
	var e Event
	assert.Equal(t, Type(0), e.Type)
	assert.True(t, e.Timestamp.IsZero())
	assert.Empty(t, e.Path)
	assert.Zero(t, e.Blocks)
	assert.Zero(t, e.Total)
	assert.Zero(t, e.Substituted)
	assert.Nil(t, e.VOBSizes)
	require.NoError(t, e.Error)
}

func TestEventFields(t *testing.T) {
	now := time.Now()
	e := Event{
		Type:        FileCompleted,
		Timestamp:   now,
		Pass:        PassTitle,
		VTS:         3,
		Path:        "VTS_03_1.VOB",
		Blocks:      1000,
		Total:       1000,
		Substituted: 1,
	}
	assert.Equal(t, FileCompleted, e.Type)
	assert.Equal(t, now, e.Timestamp)
	assert.Equal(t, PassTitle, e.Pass)
	assert.Equal(t, 3, e.VTS)
	assert.Equal(t, "VTS_03_1.VOB", e.Path)
	assert.Equal(t, int64(1), e.Substituted)
}

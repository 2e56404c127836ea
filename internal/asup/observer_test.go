package asup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObserversFanOut(t *testing.T) {
	a, b := newRecordingObserver(), newRecordingObserver()
	obs := Observers(a, nil, b)

	obs.SectionMissing("t1")
	obs.RowDiscarded("t2", "junk")
	obs.TableDecoded("t3", 4)

	for _, o := range []*recordingObserver{a, b} {
		assert.Equal(t, []string{"t1"}, o.missing)
		assert.Equal(t, []string{"junk"}, o.discarded["t2"])
		assert.Equal(t, 4, o.decoded["t3"])
	}
}

func TestObserversEmpty(t *testing.T) {
	assert.Equal(t, NopObserver{}, Observers())
	assert.Equal(t, NopObserver{}, Observers(nil, nil))
}

package media

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestFoundCollapsesToEmpty(t *testing.T) {
	if got := Found(); got.Kind != OutcomeEmpty {
		t.Errorf("Found() kind = %v, want empty", got.Kind)
	}
	got := Found(Stream{URL: "https://a/b.m3u8"})
	if got.Kind != OutcomeStreams || len(got.Streams) != 1 {
		t.Errorf("Found(1) = %+v", got)
	}
}

func TestFailedDefaultsError(t *testing.T) {
	got := Failed(nil)
	if !errors.Is(got.Err, ErrHostExtractionFailed) {
		t.Errorf("Failed(nil).Err = %v, want ErrHostExtractionFailed", got.Err)
	}
}

func TestQualityOrdering(t *testing.T) {
	order := []Quality{Quality1080, Quality720, Quality480, Quality360, Quality240, QualityAuto, QualityUnknown}
	for i := 1; i < len(order); i++ {
		if order[i-1] <= order[i] {
			t.Errorf("%v should rank above %v", order[i-1], order[i])
		}
	}
}

func TestStreamJSON(t *testing.T) {
	data, err := json.Marshal(Stream{URL: "https://x/a.m3u8", Label: "A", Quality: Quality720})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"url":"https://x/a.m3u8","label":"A","quality":"720p","source":""}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}

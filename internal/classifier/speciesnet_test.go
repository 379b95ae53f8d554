package classifier

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jpegBytes = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10}

func newTestClassifier(url string, timeout time.Duration) *SpeciesNet {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах
	return NewSpeciesNet(url, timeout, 0.3, logger)
}

func speciesServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, predictPath, r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		file, header, err := r.FormFile("file")
		if assert.NoError(t, err) {
			defer file.Close()
			got, _ := io.ReadAll(file)
			assert.Equal(t, jpegBytes, got)
			assert.Equal(t, "image.jpg", header.Filename)
			assert.Equal(t, "image/jpeg", header.Header.Get("Content-Type"))
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClassify_Identified(t *testing.T) {
	server := speciesServer(t, `{"predictions":{"predictions":[{"prediction":"f1a2;mammalia;carnivora;mustelidae;lutrogale;perspicillata;otter","prediction_score":0.9}]}}`)

	result, err := newTestClassifier(server.URL, time.Second).Classify(context.Background(), jpegBytes)

	require.NoError(t, err)
	assert.True(t, result.Available)
	assert.Equal(t, "otter", result.Label)
	assert.InDelta(t, 0.9, result.Confidence, 1e-9)
	assert.False(t, result.Unidentified)
	assert.True(t, result.Identified())
}

func TestClassify_GenericLowConfidenceIsUnidentified(t *testing.T) {
	server := speciesServer(t, `{"predictions":{"predictions":[{"prediction":"abc;mammalia;;;;;mammal","prediction_score":0.25}]}}`)

	result, err := newTestClassifier(server.URL, time.Second).Classify(context.Background(), jpegBytes)

	require.NoError(t, err)
	assert.True(t, result.Unidentified)
	assert.Empty(t, result.Label)
	assert.Equal(t, UnidentifiedMessage, result.Message)
	assert.False(t, result.Identified())
}

func TestClassify_ShapeMismatch(t *testing.T) {
	bodies := []string{
		`not json`,
		`{}`,
		`{"predictions":{"predictions":[]}}`,
		`{"predictions":{"predictions":[{"prediction":"otter"}]}}`,
		`{"predictions":{"predictions":[{"prediction_score":0.9}]}}`,
		`{"predictions":{"predictions":[{"prediction":"otter","prediction_score":7}]}}`,
	}
	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			server := speciesServer(t, body)

			result, err := newTestClassifier(server.URL, time.Second).Classify(context.Background(), jpegBytes)

			assert.Nil(t, result)
			assert.ErrorIs(t, err, ErrUnexpectedResponse)
		})
	}
}

func TestClassify_UpstreamErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClassifier(server.URL, time.Second).Classify(context.Background(), jpegBytes)

	assert.Error(t, err)
}

func TestClassify_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	_, err := newTestClassifier(server.URL, 50*time.Millisecond).Classify(context.Background(), jpegBytes)

	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	c := newTestClassifier("http://unused", time.Second)
	cases := []struct {
		label        string
		confidence   float64
		unidentified bool
	}{
		{"otter", 0.9, false},
		{"otter", 0.29, true},
		{"Unknown", 0.95, true},
		{"animal", 0.8, true},
		{"blank", 0.99, true},
		{"", 0.99, true},
		{"long-tailed macaque", 0.3, false},
	}
	for _, tc := range cases {
		got := c.Normalize(tc.label, tc.confidence)
		assert.Equal(t, tc.unidentified, got.Unidentified, tc.label)
		assert.True(t, got.Available)
	}
}

func TestCommonName(t *testing.T) {
	assert.Equal(t, "domestic cat", CommonName("x;mammalia;carnivora;felidae;felis;catus;domestic cat"))
	assert.Equal(t, "otter", CommonName("otter"))
	assert.Equal(t, "", CommonName("a;b;"))
}

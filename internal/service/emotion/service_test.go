package emotion

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"google.golang.org/genai"

	"github.com/zhouzirui/interview-sim/backend/internal/apperr"
	"github.com/zhouzirui/interview-sim/backend/internal/config"
)

type fakeVision struct {
	reply    string
	err      error
	model    string
	contents []*genai.Content
	cfg      *genai.GenerateContentConfig
	deadline bool
}

func (f *fakeVision) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.contents = contents
	f.cfg = cfg
	_, f.deadline = ctx.Deadline()
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: f.reply}}}}},
	}, nil
}

var testVideoConfig = config.VideoConfig{
	Model:             "gemini-2.0-flash",
	PollInterval:      5 * time.Millisecond,
	ProcessingTimeout: time.Second,
	InferenceTimeout:  time.Minute,
	MaxOutputTokens:   8000,
}

func videoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recordings/resume.pdf-interview.webm" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("webm-bytes"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

const reportJSON = "```json\n" + `{
  "timestamps": {"0:00-0:10": {"confidence": 2, "nervousness": "1"}},
  "interview_strengths": ["clear answers"],
  "areas_for_improvement": ["eye contact"],
  "overall_analysis": "Composed and engaged."
}` + "\n```"

func TestAnalyzeSuccessCleansUp(t *testing.T) {
	ctrl := gomock.NewController(t)
	files := NewMockfileStore(ctrl)
	vision := &fakeVision{reply: reportJSON}
	dir := t.TempDir()
	srv := videoServer(t)

	var uploaded string
	gomock.InOrder(
		files.EXPECT().UploadFromPath(gomock.Any(), gomock.Any(), &genai.UploadFileConfig{MIMEType: "video/webm"}).
			DoAndReturn(func(_ context.Context, path string, _ *genai.UploadFileConfig) (*genai.File, error) {
				data, err := os.ReadFile(path)
				require.NoError(t, err)
				assert.Equal(t, "webm-bytes", string(data))
				uploaded = path
				return &genai.File{Name: "files/abc", State: genai.FileStateProcessing}, nil
			}),
		files.EXPECT().Get(gomock.Any(), "files/abc", gomock.Nil()).
			Return(&genai.File{Name: "files/abc", State: genai.FileStateProcessing}, nil),
		files.EXPECT().Get(gomock.Any(), "files/abc", gomock.Nil()).
			Return(&genai.File{Name: "files/abc", State: genai.FileStateActive, URI: "https://files/abc", MIMEType: "video/webm"}, nil),
		files.EXPECT().Delete(gomock.Any(), "files/abc", gomock.Nil()).Return(&genai.DeleteFileResponse{}, nil),
	)

	svc := NewService(files, vision, testVideoConfig, nil, WithTempDir(dir))
	analysis, err := svc.Analyze(context.Background(), srv.URL+"/recordings/resume.pdf-interview.webm")
	require.NoError(t, err)

	require.True(t, analysis.Structured())
	assert.Equal(t, 2, analysis.Report.Timestamps["0:00-0:10"]["confidence"])
	assert.Equal(t, 1, analysis.Report.Timestamps["0:00-0:10"]["nervousness"])
	assert.Equal(t, []string{"eye contact"}, analysis.Report.AreasForImprovement)

	assert.Equal(t, "gemini-2.0-flash", vision.model)
	assert.Equal(t, int32(8000), vision.cfg.MaxOutputTokens)
	assert.True(t, vision.deadline)
	require.Len(t, vision.contents[0].Parts, 2)
	assert.Equal(t, "https://files/abc", vision.contents[0].Parts[0].FileData.FileURI)

	assert.NotEmpty(t, uploaded)
	assertDirEmpty(t, dir)
}

func TestAnalyzeNonJSONReturnsText(t *testing.T) {
	ctrl := gomock.NewController(t)
	files := NewMockfileStore(ctrl)
	dir := t.TempDir()
	srv := videoServer(t)

	files.EXPECT().UploadFromPath(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&genai.File{Name: "files/x", State: genai.FileStateActive}, nil)
	files.EXPECT().Delete(gomock.Any(), "files/x", gomock.Nil()).Return(nil, errors.New("already gone"))

	vision := &fakeVision{reply: "## Summary\nThe candidate looked confident.\n\nGood posture."}
	svc := NewService(files, vision, testVideoConfig, nil, WithTempDir(dir))

	analysis, err := svc.Analyze(context.Background(), srv.URL+"/recordings/resume.pdf-interview.webm")
	require.NoError(t, err)
	assert.False(t, analysis.Structured())
	assert.Equal(t, "The candidate looked confident.\nGood posture.", analysis.Raw)
	assertDirEmpty(t, dir)
}

func TestAnalyzeProcessingFailed(t *testing.T) {
	ctrl := gomock.NewController(t)
	files := NewMockfileStore(ctrl)
	dir := t.TempDir()
	srv := videoServer(t)

	files.EXPECT().UploadFromPath(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&genai.File{Name: "files/y", State: genai.FileStateProcessing}, nil)
	files.EXPECT().Get(gomock.Any(), "files/y", gomock.Nil()).
		Return(&genai.File{Name: "files/y", State: genai.FileStateFailed}, nil)
	files.EXPECT().Delete(gomock.Any(), "files/y", gomock.Nil()).Return(&genai.DeleteFileResponse{}, nil)

	vision := &fakeVision{reply: "{}"}
	svc := NewService(files, vision, testVideoConfig, nil, WithTempDir(dir))

	_, err := svc.Analyze(context.Background(), srv.URL+"/recordings/resume.pdf-interview.webm")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrProcessingFailed)
	assert.Contains(t, err.Error(), "Video processing failed")
	assert.Nil(t, vision.contents, "inference must not run")
	assertDirEmpty(t, dir)
}

func TestAnalyzeProcessingTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	files := NewMockfileStore(ctrl)
	dir := t.TempDir()
	srv := videoServer(t)

	files.EXPECT().UploadFromPath(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&genai.File{Name: "files/z", State: genai.FileStateProcessing}, nil)
	files.EXPECT().Get(gomock.Any(), "files/z", gomock.Nil()).
		Return(&genai.File{Name: "files/z", State: genai.FileStateProcessing}, nil).AnyTimes()
	files.EXPECT().Delete(gomock.Any(), "files/z", gomock.Nil()).Return(&genai.DeleteFileResponse{}, nil)

	cfg := testVideoConfig
	cfg.ProcessingTimeout = 30 * time.Millisecond
	svc := NewService(files, &fakeVision{}, cfg, nil, WithTempDir(dir))

	_, err := svc.Analyze(context.Background(), srv.URL+"/recordings/resume.pdf-interview.webm")
	assert.ErrorIs(t, err, apperr.ErrProcessingFailed)
	assertDirEmpty(t, dir)
}

func TestAnalyzeInferenceFailureCleansUp(t *testing.T) {
	ctrl := gomock.NewController(t)
	files := NewMockfileStore(ctrl)
	dir := t.TempDir()
	srv := videoServer(t)

	files.EXPECT().UploadFromPath(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&genai.File{Name: "files/q", State: genai.FileStateActive}, nil)
	files.EXPECT().Delete(gomock.Any(), "files/q", gomock.Nil()).Return(&genai.DeleteFileResponse{}, nil)

	svc := NewService(files, &fakeVision{err: errors.New("deadline exceeded")}, testVideoConfig, nil, WithTempDir(dir))
	_, err := svc.Analyze(context.Background(), srv.URL+"/recordings/resume.pdf-interview.webm")
	assert.ErrorIs(t, err, apperr.ErrInference)
	assertDirEmpty(t, dir)
}

func TestAnalyzeDownloadFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	files := NewMockfileStore(ctrl)
	dir := t.TempDir()
	srv := videoServer(t)

	svc := NewService(files, &fakeVision{}, testVideoConfig, nil, WithTempDir(dir))
	_, err := svc.Analyze(context.Background(), srv.URL+"/recordings/missing.webm")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status code: 404")
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
	assertDirEmpty(t, dir)
}

func TestVideoMIMEType(t *testing.T) {
	assert.Equal(t, "video/mp4", videoMIMEType("https://x/y/interview.MP4?sig=1"))
	assert.Equal(t, "video/webm", videoMIMEType("https://x/y/interview.webm"))
	assert.Equal(t, "video/webm", videoMIMEType("https://x/y/interview"))
}

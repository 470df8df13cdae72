package services

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dlehman/mechanic-shop-api/utils"
)

// makeFileHeader builds a multipart.FileHeader the same way gin receives one
func makeFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("photo", filename)
	assert.NoError(t, err)
	_, err = part.Write(content)
	assert.NoError(t, err)
	assert.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	assert.NoError(t, req.ParseMultipartForm(32<<20))

	return req.MultipartForm.File["photo"][0]
}

// fakeS3 records calls without touching AWS
type fakeS3 struct {
	uploadedKey string
	deletedKey  string
}

func (f *fakeS3) UploadFile(ticketID uint, fileHeader *multipart.FileHeader) (string, error) {
	f.uploadedKey = "tickets/1/fake_" + fileHeader.Filename
	return f.uploadedKey, nil
}

func (f *fakeS3) GetPresignedURL(s3Key string) (string, error) {
	if s3Key == "" {
		return "", nil
	}
	return "https://example.com/" + s3Key, nil
}

func (f *fakeS3) DeleteFile(s3Key string) error {
	f.deletedKey = s3Key
	return nil
}

func TestS3PhotoServiceUploadValidates(t *testing.T) {
	backend := &fakeS3{}
	svc := NewS3PhotoService(backend)

	// Wrong extension never reaches the backend
	_, err := svc.UploadPhoto(1, makeFileHeader(t, "notes.txt", []byte("hello")))
	assert.Error(t, err)
	uploadErr, ok := err.(*utils.FileUploadError)
	assert.True(t, ok)
	assert.Equal(t, "INVALID_FILE_FORMAT", uploadErr.Code)
	assert.Empty(t, backend.uploadedKey)

	// Valid PNG is passed through
	key, err := svc.UploadPhoto(1, makeFileHeader(t, "car.png", []byte("png-bytes")))
	assert.NoError(t, err)
	assert.Equal(t, backend.uploadedKey, key)
}

func TestMockPhotoServiceRoundTrip(t *testing.T) {
	mock := NewMockPhotoService()

	key, err := mock.UploadPhoto(3, makeFileHeader(t, "dent.jpg", []byte("jpeg-bytes")))
	assert.NoError(t, err)
	assert.True(t, mock.PhotoExists(key))

	url, err := mock.GetPhotoURL(key)
	assert.NoError(t, err)
	assert.Contains(t, url, key)

	assert.NoError(t, mock.DeletePhoto(key))
	assert.False(t, mock.PhotoExists(key))

	_, err = mock.GetPhotoURL(key)
	assert.Error(t, err, "deleted photo should not resolve to a URL")
}

func TestMockPhotoServiceValidatesLikeRealService(t *testing.T) {
	mock := NewMockPhotoService()

	_, err := mock.UploadPhoto(1, makeFileHeader(t, "car.gif", []byte("gif-bytes")))
	assert.Error(t, err)
}

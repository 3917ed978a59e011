package imageclient_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreschagin/image-gallery/internal/apitest"
	"github.com/dreschagin/image-gallery/pkg/imageclient"
)

func TestUploadListViewRoundTrip(t *testing.T) {
	server := apitest.NewServer()
	defer server.Close()

	client, err := imageclient.New(server.URL, imageclient.WithHTTPClient(server.Client()))
	require.NoError(t, err)

	data := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 1, 2, 3}
	require.NoError(t, client.RequestUpload(context.Background(), &imageclient.File{
		Name: "cat.png",
		Type: "image/png",
		Data: data,
	}))

	images, err := client.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, images, 1)

	payload, err := client.ViewImage(context.Background(), images[0].ImageID)
	require.NoError(t, err)
	assert.Equal(t, "image/png", payload.ContentType)

	decoded, err := payload.Decode()
	require.NoError(t, err)
	assert.Equal(t, data, decoded)

	raw, contentType, err := client.DownloadImage(context.Background(), images[0].ImageID)
	require.NoError(t, err)
	assert.Equal(t, data, raw)
	assert.Equal(t, "image/png", contentType)

	assert.Equal(t, 1, server.Requests("POST /api/upload-url"))
}

func TestViewUnknownImageIsNotFound(t *testing.T) {
	server := apitest.NewServer()
	defer server.Close()

	client, err := imageclient.New(server.URL, imageclient.WithHTTPClient(server.Client()))
	require.NoError(t, err)

	_, err = client.ViewImage(context.Background(), "does-not-exist")
	var notFound *imageclient.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestConcurrentOperations(t *testing.T) {
	server := apitest.NewServer()
	defer server.Close()
	server.Put("seed", "image/jpeg", []byte{0xff, 0xd8, 0xff})

	client, err := imageclient.New(server.URL, imageclient.WithHTTPClient(server.Client()))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 30)
	for i := 0; i < 10; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			errs <- client.RequestUpload(context.Background(), &imageclient.File{
				Name: fmt.Sprintf("img-%d.jpg", i),
				Type: "image/jpeg",
				Data: []byte{0xff, 0xd8, 0xff, byte(i)},
			})
		}()
		go func() {
			defer wg.Done()
			_, err := client.ListAll(context.Background())
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := client.ViewImage(context.Background(), "seed")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	images, err := client.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, images, 11)
}

func TestRequestUploadSendsSignedContentType(t *testing.T) {
	server := apitest.NewServer()
	defer server.Close()

	client, err := imageclient.New(server.URL, imageclient.WithHTTPClient(server.Client()))
	require.NoError(t, err)

	// "image/jpg" is signed as-is and sent back unchanged, so the store accepts it.
	require.NoError(t, client.RequestUpload(context.Background(), &imageclient.File{
		Name: "a.jpg", Type: "image/jpg", Data: []byte{0xff, 0xd8, 0xff},
	}))
	assert.Len(t, server.ImageIDs(), 1)
}

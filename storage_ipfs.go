package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	ipfsapi "github.com/ipfs/go-ipfs-api"
	files "github.com/ipfs/go-ipfs-files"
)

// IPFSStorage adds the image and then its metadata document to an IPFS node over the HTTP RPC
// API. The metadata is added as a dag-pb CIDv1 so its CID carries the codec token ids expect.
type IPFSStorage struct {
	shell *ipfsapi.Shell
}

type bearerTransport struct {
	token string
	next  http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+t.token)
	return t.next.RoundTrip(req)
}

func NewIPFSStorage(apiURL, apiKey string, timeout time.Duration) *IPFSStorage {
	client := &http.Client{Timeout: timeout}
	if apiKey != "" {
		client.Transport = &bearerTransport{token: apiKey, next: http.DefaultTransport}
	}
	return &IPFSStorage{shell: ipfsapi.NewShellWithClient(apiURL, client)}
}

type ipfsMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

type ipfsAddResult struct {
	Hash string
}

// add posts data to the node's add endpoint. The request builder is used instead of Shell.Add
// so that ctx cancels the upload.
func (storage *IPFSStorage) add(ctx context.Context, data []byte, hashAlgorithm string) (string, error) {
	entries := []files.DirEntry{files.FileEntry("", files.NewBytesFile(data))}
	body := files.NewMultiFileReader(files.NewSliceDirectory(entries), true)

	request := storage.shell.Request("add").
		Option("cid-version", 1).
		Option("raw-leaves", false).
		Option("pin", true).
		Body(body)
	if hashAlgorithm != "" {
		request = request.Option("hash", hashAlgorithm)
	}

	var result ipfsAddResult
	if err := request.Exec(ctx, &result); err != nil {
		return "", err
	}
	if result.Hash == "" {
		return "", errors.New("node returned no hash")
	}
	return result.Hash, nil
}

func (storage *IPFSStorage) UploadNFT(ctx context.Context, metadata NFTMetadata, hashAlgorithm string) (string, error) {
	if metadata.Image == nil {
		return "", fmt.Errorf("%w: no image to upload", ErrUpstreamFetch)
	}

	imageCID, err := storage.add(ctx, metadata.Image.Data, hashAlgorithm)
	if err != nil {
		return "", fmt.Errorf("%w: adding image: %v", ErrUpstreamFetch, err)
	}

	document, err := json.Marshal(ipfsMetadata{
		Name:        metadata.Name,
		Description: metadata.Description,
		Image:       "ipfs://" + imageCID,
	})
	if err != nil {
		return "", err
	}

	metadataCID, err := storage.add(ctx, document, hashAlgorithm)
	if err != nil {
		return "", fmt.Errorf("%w: adding metadata: %v", ErrUpstreamFetch, err)
	}
	return metadataCID, nil
}

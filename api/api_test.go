package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/foliodocs/folio/pkg/blob"
	"github.com/foliodocs/folio/pkg/chunker"
	"github.com/foliodocs/folio/pkg/document"
	"github.com/foliodocs/folio/pkg/eventstream"
	"github.com/foliodocs/folio/pkg/pipeline"
	testutils "github.com/foliodocs/folio/pkg/utils/test"
	"github.com/foliodocs/folio/pkg/vector"
)

func TestAPI(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "API Suite")
}

var _ = Describe("Server", func() {
	var (
		server    *Server
		index     *testutils.MockIndex
		blobs     *testutils.MockBlobStore
		extractor *testutils.MockExtractor
		events    *testutils.MockPublisher
	)

	const manualText = "Prime the pump before first start and check the seal for leaks every maintenance interval."

	newMultipartUpload := func(filename string, data []byte) *http.Request {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		part, err := writer.CreateFormFile("file", filename)
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write(data)
		Expect(err).NotTo(HaveOccurred())
		Expect(writer.Close()).To(Succeed())

		req, err := http.NewRequest(http.MethodPost, "/upload", &buf)
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set("Content-Type", writer.FormDataContentType())
		return req
	}

	decodeBody := func(resp *http.Response, out any) {
		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(json.Unmarshal(body, out)).To(Succeed())
	}

	BeforeEach(func() {
		logger := zap.NewNop()
		index = testutils.NewMockIndex()
		blobs = testutils.NewMockBlobStore()
		extractor = testutils.NewMockExtractor(chunker.Page{PageNumber: 1, Text: manualText})
		events = testutils.NewMockPublisher()
		embedder := testutils.NewMockEmbedder()

		ingestor := pipeline.NewIngestor(extractor, chunker.New(), embedder, index, logger)
		retriever := pipeline.NewRetriever(embedder, index, testutils.NewMockRewriter(""), logger)
		manager := document.NewManager(index, blobs, logger)

		server = NewServer(Config{ListenAddr: ":0"}, ingestor, retriever, manager, blobs, events, logger)
	})

	Describe("GET /ping", func() {
		It("returns pong", func() {
			req, err := http.NewRequest(http.MethodGet, "/ping", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(ContainSubstring("pong"))
		})
	})

	Describe("POST /upload", func() {
		It("stores the file and indexes its chunks", func() {
			resp, err := server.app.Test(newMultipartUpload("Pump Manual.pdf", []byte("%PDF-1.4")))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var upload UploadResponse
			decodeBody(resp, &upload)
			Expect(upload.Filename).To(Equal("Pump Manual.pdf"))
			Expect(upload.SourcePath).To(Equal(blob.SourcePath("Pump Manual.pdf")))
			Expect(upload.ChunksCreated).To(BeNumerically(">", 0))
			Expect(upload.DocumentID).NotTo(BeEmpty())

			Expect(blobs.Files).To(HaveKey("pump_manual.pdf"))
			Expect(index.Records).To(HaveLen(upload.ChunksCreated))
		})

		It("publishes an ingested event", func() {
			_, err := server.app.Test(newMultipartUpload("manual.pdf", []byte("%PDF-1.4")))
			Expect(err).NotTo(HaveOccurred())

			Expect(events.Ingested).To(HaveLen(1))
			Expect(events.Ingested[0].EventType).To(Equal(eventstream.EventTypeDocumentIngested))
			Expect(events.Ingested[0].Filename).To(Equal("manual.pdf"))
		})

		It("rejects non-PDF files", func() {
			resp, err := server.app.Test(newMultipartUpload("notes.txt", []byte("plain text")))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("requires the file field", func() {
			req, err := http.NewRequest(http.MethodPost, "/upload", strings.NewReader(""))
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("accepts a PDF with no extractable text", func() {
			extractor.Pages = nil

			resp, err := server.app.Test(newMultipartUpload("scanned.pdf", []byte("%PDF-1.4")))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var upload UploadResponse
			decodeBody(resp, &upload)
			Expect(upload.ChunksCreated).To(Equal(0))
			Expect(upload.DocumentID).To(BeEmpty())
		})

		It("fails when ingestion fails", func() {
			index.FailAdd = true

			resp, err := server.app.Test(newMultipartUpload("manual.pdf", []byte("%PDF-1.4")))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("POST /query", func() {
		postQuery := func(body string) *http.Response {
			req, err := http.NewRequest(http.MethodPost, "/query", strings.NewReader(body))
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Content-Type", "application/json")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			return resp
		}

		It("returns ranked results for indexed content", func() {
			_, err := server.app.Test(newMultipartUpload("manual.pdf", []byte("%PDF-1.4")))
			Expect(err).NotTo(HaveOccurred())

			resp := postQuery(`{"question": "how do I prime the pump", "top_k": 3}`)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var query QueryResponse
			decodeBody(resp, &query)
			Expect(query.Count).To(BeNumerically(">", 0))
			Expect(query.Results[0].PDFLink).To(ContainSubstring("#page=1"))
		})

		It("returns empty results on an empty index", func() {
			resp := postQuery(`{"question": "anything"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var query QueryResponse
			decodeBody(resp, &query)
			Expect(query.Count).To(Equal(0))
			Expect(query.Results).To(BeEmpty())
		})

		It("rejects a blank question", func() {
			resp := postQuery(`{"question": "  "}`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("rejects a malformed body", func() {
			resp := postQuery(`not json`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("DELETE /document/:filename", func() {
		It("removes the document's chunks and file", func() {
			_, err := server.app.Test(newMultipartUpload("Pump Manual.pdf", []byte("%PDF-1.4")))
			Expect(err).NotTo(HaveOccurred())
			Expect(index.Records).NotTo(BeEmpty())

			req, err := http.NewRequest(http.MethodDelete, "/document/Pump%20Manual.pdf", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var result document.DeleteResult
			decodeBody(resp, &result)
			Expect(result.ChunksDeleted).To(BeNumerically(">", 0))
			Expect(result.FileDeleted).To(BeTrue())
			Expect(index.Records).To(BeEmpty())
			Expect(blobs.Files).To(BeEmpty())

			Expect(events.Deleted).To(HaveLen(1))
			Expect(events.Deleted[0].EventType).To(Equal(eventstream.EventTypeDocumentDeleted))
		})

		It("returns 404 for an unknown document", func() {
			req, err := http.NewRequest(http.MethodDelete, "/document/missing.pdf", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("returns 500 when chunks survive deletion", func() {
			index.Records["stuck"] = vector.Record{
				ID: "stuck",
				Metadata: vector.Metadata{
					Source:     blob.SourcePath("manual.pdf"),
					Filename:   "manual.pdf",
					PageNumber: 1,
				},
			}
			index.SurviveDelete = []string{"stuck"}

			req, err := http.NewRequest(http.MethodDelete, "/document/manual.pdf", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("DELETE /documents", func() {
		It("clears the whole index", func() {
			_, err := server.app.Test(newMultipartUpload("manual.pdf", []byte("%PDF-1.4")))
			Expect(err).NotTo(HaveOccurred())
			Expect(index.Records).NotTo(BeEmpty())

			req, err := http.NewRequest(http.MethodDelete, "/documents", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(index.Records).To(BeEmpty())
		})
	})

	Describe("GET /stats", func() {
		It("reports the chunk count", func() {
			_, err := server.app.Test(newMultipartUpload("manual.pdf", []byte("%PDF-1.4")))
			Expect(err).NotTo(HaveOccurred())

			req, err := http.NewRequest(http.MethodGet, "/stats", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var stats map[string]int
			decodeBody(resp, &stats)
			Expect(stats["chunks"]).To(Equal(len(index.Records)))
		})
	})
})

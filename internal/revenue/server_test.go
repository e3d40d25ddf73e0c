package revenue

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"

	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

// multipartUpload builds a multipart request body with a file part and
// optional extra form fields
func multipartUpload(filename string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	Expect(err).NotTo(HaveOccurred())
	_, err = part.Write(data)
	Expect(err).NotTo(HaveOccurred())
	for k, v := range fields {
		Expect(writer.WriteField(k, v)).To(Succeed())
	}
	Expect(writer.Close()).To(Succeed())
	return body, writer.FormDataContentType()
}

var _ = ginkgo.Describe("Server", func() {
	var (
		db          *mockDB
		extractor   *mockExtractor
		storage     *mockStorage
		service     *Service
		auth        BasicAuth
		server      *Server
		ghttpServer *ghttp.Server
	)

	setupServer := func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
		server = NewServerWithMux(service, auth, http.NewServeMux())
		ghttpServer = ghttp.NewServer()
		ghttpServer.AppendHandlers(server.ServeHTTP)
	}

	ginkgo.BeforeEach(func() {
		db = newMockDB()
		extractor = newMockExtractor()
		storage = newMockStorage()
		service = NewServiceWithDeps(db, extractor, storage, NewParser(), DefaultCutoffHour,
			&fixedIDGenerator{id: "doc-1"}, &fixedTimeSource{})
		auth = BasicAuth{}
		setupServer()
	})

	ginkgo.AfterEach(func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
	})

	ginkgo.Describe("handleIndex", func() {
		ginkgo.It("should serve the HTML interface", func() {
			resp, err := http.Get(ghttpServer.URL() + "/")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(ContainSubstring("Revenue Tracker"))
		})
	})

	ginkgo.Describe("static assets", func() {
		ginkgo.It("should serve the stylesheet with the right MIME type", func() {
			resp, err := http.Get(ghttpServer.URL() + "/static/app.css")
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(ContainSubstring("text/css"))
		})

		ginkgo.It("should serve the script with the right MIME type", func() {
			resp, err := http.Get(ghttpServer.URL() + "/static/app.js")
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(ContainSubstring("javascript"))
		})
	})

	ginkgo.Describe("handleListDocuments", func() {
		ginkgo.When("documents exist", func() {
			ginkgo.BeforeEach(func() {
				db.documents["id1"] = &Document{ID: "id1"}
				db.documents["id2"] = &Document{ID: "id2"}
			})

			ginkgo.It("should return all documents as JSON", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/documents")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(resp.Header.Get("Content-Type")).To(Equal("application/json"))

				var docs []*Document
				Expect(json.NewDecoder(resp.Body).Decode(&docs)).To(Succeed())
				Expect(docs).To(HaveLen(2))
			})
		})

		ginkgo.When("no documents exist", func() {
			ginkgo.It("should return an empty JSON array", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/documents")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(string(body)).To(MatchJSON("[]"))
			})
		})
	})

	ginkgo.Describe("handleUploadDocument", func() {
		ginkgo.When("a valid file is uploaded", func() {
			ginkgo.BeforeEach(func() {
				extractor.text = "09 HRS 4 $50.00\n15 HRS 2 $75.00"
			})

			ginkgo.It("should return the processed document", func() {
				body, contentType := multipartUpload("log.pdf", []byte("pdf-bytes"), nil)
				resp, err := http.Post(ghttpServer.URL()+"/api/documents", contentType, body)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))

				var doc Document
				Expect(json.NewDecoder(resp.Body).Decode(&doc)).To(Succeed())
				Expect(doc.ID).To(Equal("doc-1"))
				Expect(doc.Report.TotalBefore.StringFixed(2)).To(Equal("50.00"))
				Expect(doc.Report.TotalAfter.StringFixed(2)).To(Equal("75.00"))
			})
		})

		ginkgo.When("a cutoff_hour field is provided", func() {
			ginkgo.It("should override the default cutoff", func() {
				body, contentType := multipartUpload("log.pdf", []byte("x"), map[string]string{"cutoff_hour": "12"})
				resp, err := http.Post(ghttpServer.URL()+"/api/documents", contentType, body)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))

				var doc Document
				Expect(json.NewDecoder(resp.Body).Decode(&doc)).To(Succeed())
				Expect(doc.Report.CutoffHour).To(Equal(12))
			})
		})

		ginkgo.When("the cutoff_hour field is invalid", func() {
			ginkgo.It("should return Bad Request before processing", func() {
				body, contentType := multipartUpload("log.pdf", []byte("x"), map[string]string{"cutoff_hour": "25"})
				resp, err := http.Post(ghttpServer.URL()+"/api/documents", contentType, body)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				Expect(extractor.calls).To(BeZero())
			})

			ginkgo.It("should return Bad Request for non-numeric values", func() {
				body, contentType := multipartUpload("log.pdf", []byte("x"), map[string]string{"cutoff_hour": "noon"})
				resp, err := http.Post(ghttpServer.URL()+"/api/documents", contentType, body)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})

		ginkgo.When("no file is provided", func() {
			ginkgo.It("should return Bad Request", func() {
				body := &bytes.Buffer{}
				writer := multipart.NewWriter(body)
				Expect(writer.Close()).To(Succeed())

				resp, err := http.Post(ghttpServer.URL()+"/api/documents", writer.FormDataContentType(), body)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})

		ginkgo.When("extraction fails", func() {
			ginkgo.BeforeEach(func() {
				extractor.extractErr = io.ErrUnexpectedEOF
			})

			ginkgo.It("should return Bad Request with a JSON error", func() {
				body, contentType := multipartUpload("log.pdf", []byte("x"), nil)
				resp, err := http.Post(ghttpServer.URL()+"/api/documents", contentType, body)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

				var errBody map[string]string
				Expect(json.NewDecoder(resp.Body).Decode(&errBody)).To(Succeed())
				Expect(errBody).To(HaveKey("error"))
			})
		})
	})

	ginkgo.Describe("handleGetDocument", func() {
		ginkgo.BeforeEach(func() {
			db.documents["doc-1"] = &Document{ID: "doc-1"}
		})

		ginkgo.It("should return the document", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/documents/doc-1")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})

		ginkgo.It("should return Not Found for an unknown ID", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/documents/missing")
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	ginkgo.Describe("handleExportCSV", func() {
		ginkgo.BeforeEach(func() {
			report, err := BuildReport([]HourlyRecord{{Hour: 9, Revenue: dec("50.00")}}, 15)
			Expect(err).NotTo(HaveOccurred())
			db.documents["doc-1"] = &Document{ID: "doc-1", Report: *report}
		})

		ginkgo.It("should return a CSV attachment", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/documents/doc-1/csv")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(ContainSubstring("text/csv"))
			Expect(resp.Header.Get("Content-Disposition")).To(ContainSubstring("revenue_data.csv"))

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(ContainSubstring("hour,time,revenue,quantity,category"))
		})
	})

	ginkgo.Describe("handleDeleteDocument", func() {
		ginkgo.BeforeEach(func() {
			db.documents["doc-1"] = &Document{ID: "doc-1", Filename: "doc-1_log.pdf"}
		})

		ginkgo.It("should delete the document", func() {
			req, err := http.NewRequest("DELETE", ghttpServer.URL()+"/api/documents/doc-1", nil)
			Expect(err).NotTo(HaveOccurred())
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(db.documents).NotTo(HaveKey("doc-1"))
		})
	})

	ginkgo.Describe("basic auth", func() {
		ginkgo.BeforeEach(func() {
			auth = BasicAuth{Username: "admin", Password: "secret"}
			setupServer()
		})

		ginkgo.It("should reject requests without credentials", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/documents")
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		})

		ginkgo.It("should accept requests with valid credentials", func() {
			req, err := http.NewRequest("GET", ghttpServer.URL()+"/api/documents", nil)
			Expect(err).NotTo(HaveOccurred())
			creds := base64.StdEncoding.EncodeToString([]byte("admin:secret"))
			req.Header.Set("Authorization", "Basic "+creds)

			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})

		ginkgo.It("should reject requests with wrong credentials", func() {
			req, err := http.NewRequest("GET", ghttpServer.URL()+"/api/documents", nil)
			Expect(err).NotTo(HaveOccurred())
			creds := base64.StdEncoding.EncodeToString([]byte("admin:wrong"))
			req.Header.Set("Authorization", "Basic "+creds)

			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		})
	})
})

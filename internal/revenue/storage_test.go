package revenue

import (
	"path/filepath"

	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = ginkgo.Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage Storage
	)

	ginkgo.BeforeEach(func() {
		tmpDir = ginkgo.GinkgoT().TempDir()
		var err error
		storage, err = NewLocalStorage(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	ginkgo.Describe("Save", func() {
		var (
			filename  string
			data      []byte
			savedPath string
			err       error
		)

		ginkgo.BeforeEach(func() {
			filename = "doc-1_log.pdf"
			data = []byte("pdf content")
		})

		ginkgo.JustBeforeEach(func() {
			savedPath, err = storage.Save(filename, data)
		})

		ginkgo.When("saving succeeds", func() {
			ginkgo.It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			ginkgo.It("should return the correct path", func() {
				Expect(savedPath).To(Equal(filename))
			})

			ginkgo.It("should save the file to disk", func() {
				Expect(filepath.Join(tmpDir, filename)).To(BeAnExistingFile())
			})
		})
	})

	ginkgo.Describe("Get", func() {
		ginkgo.BeforeEach(func() {
			_, err := storage.Save("doc-1_log.pdf", []byte("pdf content"))
			Expect(err).NotTo(HaveOccurred())
		})

		ginkgo.When("the file exists", func() {
			ginkgo.It("should return its contents", func() {
				data, err := storage.Get("doc-1_log.pdf")
				Expect(err).NotTo(HaveOccurred())
				Expect(data).To(Equal([]byte("pdf content")))
			})
		})

		ginkgo.When("the file does not exist", func() {
			ginkgo.It("returns the error", func() {
				_, err := storage.Get("missing.pdf")
				Expect(err).To(HaveOccurred())
			})
		})
	})

	ginkgo.Describe("Delete", func() {
		ginkgo.BeforeEach(func() {
			_, err := storage.Save("doc-1_log.pdf", []byte("pdf content"))
			Expect(err).NotTo(HaveOccurred())
		})

		ginkgo.It("should remove the file", func() {
			Expect(storage.Delete("doc-1_log.pdf")).To(Succeed())
			Expect(filepath.Join(tmpDir, "doc-1_log.pdf")).NotTo(BeAnExistingFile())
		})

		ginkgo.It("returns an error for a missing file", func() {
			Expect(storage.Delete("missing.pdf")).NotTo(Succeed())
		})
	})
})

var _ = ginkgo.Describe("NewLocalStorage", func() {
	ginkgo.It("should create the base directory", func() {
		base := filepath.Join(ginkgo.GinkgoT().TempDir(), "nested", "documents")
		_, err := NewLocalStorage(base)
		Expect(err).NotTo(HaveOccurred())
		Expect(base).To(BeADirectory())
	})
})

package testing

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/onsi/gomega"
	"github.com/stemremover/stem-remover-be/src/server/internal/session"
)

type RequestModifier func(r *http.Request)

type RequestModifiers []RequestModifier

func (r *RequestModifiers) Add(mods ...RequestModifier) {
	*r = append(*r, mods...)
}

func WithSessionCookie(token string) RequestModifier {
	return func(request *http.Request) {
		request.AddCookie(&http.Cookie{
			Name:  session.CookieName,
			Value: token,
		})
	}
}

type RequestFactory struct {
	Method string
	Target string
	Form   url.Values
	Mods   RequestModifiers
}

func (r RequestFactory) MakeFake() *http.Request {
	var body io.Reader
	if r.Form != nil {
		body = bytes.NewBufferString(r.Form.Encode())
	}

	request := httptest.NewRequest(r.Method, r.Target, body)

	if r.Form != nil {
		request.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}

	for _, mod := range r.Mods {
		mod(request)
	}

	return request
}

// MultipartRequestFactory builds the upload shape /isolate accepts: one file
// part plus plain form fields.
type MultipartRequestFactory struct {
	Method      string
	Target      string
	FileField   string
	FileName    string
	FileContent []byte
	Fields      map[string]string
	Mods        RequestModifiers
}

func (r MultipartRequestFactory) MakeFake() *http.Request {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if r.FileField != "" {
		part, err := writer.CreateFormFile(r.FileField, r.FileName)
		gomega.ExpectWithOffset(1, err).NotTo(gomega.HaveOccurred())

		_, err = part.Write(r.FileContent)
		gomega.ExpectWithOffset(1, err).NotTo(gomega.HaveOccurred())
	}

	for key, value := range r.Fields {
		err := writer.WriteField(key, value)
		gomega.ExpectWithOffset(1, err).NotTo(gomega.HaveOccurred())
	}

	err := writer.Close()
	gomega.ExpectWithOffset(1, err).NotTo(gomega.HaveOccurred())

	request := httptest.NewRequest(r.Method, r.Target, body)
	request.Header.Set(echo.HeaderContentType, writer.FormDataContentType())

	for _, mod := range r.Mods {
		mod(request)
	}

	return request
}

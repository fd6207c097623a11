package server

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/akuity/artifact-resolver/internal/artifacts"
	httputil "github.com/akuity/artifact-resolver/internal/http"
	"github.com/akuity/artifact-resolver/internal/logging"
	"github.com/akuity/artifact-resolver/internal/version"
)

// maxReferenceBytes bounds the size of a fetch request body. Embedded
// artifacts travel inside the reference, so this is generous.
const maxReferenceBytes = 8 << 20

type credentialView struct {
	Name  string   `json:"name"`
	Types []string `json:"types"`
}

func (s *server) healthz(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteResponseJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) version(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteResponseJSON(w, http.StatusOK, version.GetVersion())
}

func (s *server) listCredentials(w http.ResponseWriter, _ *http.Request) {
	creds := s.repo.List()
	res := make([]credentialView, len(creds))
	for i, cred := range creds {
		res[i] = credentialView{
			Name:  cred.Name(),
			Types: cred.Types(),
		}
	}
	httputil.SetNoCacheHeaders(w)
	httputil.WriteResponseJSON(w, http.StatusOK, res)
}

func (s *server) fetch(w http.ResponseWriter, r *http.Request) {
	logger := logging.LoggerFromContext(r.Context())

	body, err := httputil.LimitRead(r.Body, maxReferenceBytes)
	if err != nil {
		if httputil.CodeFrom(err) == http.StatusInternalServerError {
			err = httputil.Error(err, http.StatusBadRequest)
		}
		s.handleError(w, err, logger)
		return
	}
	ref := artifacts.Reference{}
	if err = json.Unmarshal(body, &ref); err != nil {
		s.handleError(
			w,
			httputil.Error(
				fmt.Errorf("error unmarshaling artifact reference: %w", err),
				http.StatusBadRequest,
			),
			logger,
		)
		return
	}
	if ref.Type == "" {
		s.handleError(
			w,
			httputil.Error(errors.New("artifact reference has no type"), http.StatusBadRequest),
			logger,
		)
		return
	}
	logger = logger.WithValues("type", ref.Type, "account", ref.Account)

	rc, err := s.downloader.Download(r.Context(), ref)
	if err != nil {
		s.handleError(w, err, logger)
		return
	}
	defer rc.Close()

	// Nothing has been written yet, so a stream that fails on its first read
	// can still be answered with an error status.
	br := bufio.NewReader(rc)
	if _, err = br.Peek(1); err != nil && !errors.Is(err, io.EOF) {
		s.handleError(w, err, logger)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	n, err := io.Copy(w, br)
	if err != nil {
		// Headers are already sent; all that is left is to cut the response
		// short and record why.
		logger.Error(err, "error streaming artifact", "bytesWritten", n)
		return
	}
	logger.Debug("streamed artifact", "bytesWritten", n)
}

func (s *server) listNames(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	names, err := s.resolver.ListNames(r.Context(), vars["type"], vars["accountName"])
	if err != nil {
		s.handleError(w, err, logging.LoggerFromContext(r.Context()))
		return
	}
	httputil.WriteResponseJSON(w, http.StatusOK, names)
}

func (s *server) listVersions(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	versions, err := s.resolver.ListVersions(
		r.Context(),
		vars["type"],
		vars["accountName"],
		vars["artifactName"],
	)
	if err != nil {
		s.handleError(w, err, logging.LoggerFromContext(r.Context()))
		return
	}
	httputil.WriteResponseJSON(w, http.StatusOK, versions)
}

// handleError writes err to w with a status code reflecting its kind.
func (s *server) handleError(
	w http.ResponseWriter,
	err error,
	logger *logging.Logger,
) {
	code := statusCodeFor(err)
	if code >= http.StatusInternalServerError {
		logger.Error(err, "error handling request", "code", code)
	} else {
		logger.Debug("error handling request", "code", code, "error", err.Error())
	}
	httputil.WriteErrorJSON(w, httputil.Error(err, code))
}

func statusCodeFor(err error) int {
	if code := httputil.CodeFrom(err); code != http.StatusInternalServerError {
		return code
	}
	var transportErr *artifacts.TransportError
	switch {
	case artifacts.IsNotConfigured(err):
		return http.StatusNotImplemented
	case artifacts.IsInvalidReference(err):
		return http.StatusBadRequest
	case artifacts.IsUnsupportedType(err), artifacts.IsNotFound(err):
		return http.StatusNotFound
	case errors.As(err, &transportErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

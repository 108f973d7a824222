// Command svmd is a small HTTP daemon exposing the compiler and
// interpreter over JSON, for embedders that would rather shell out to
// a long-lived process than link the packages directly.
package main

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/svmlang/svmc/internal/assembler"
	"github.com/svmlang/svmc/internal/compiler"
	"github.com/svmlang/svmc/internal/config"
	"github.com/svmlang/svmc/internal/interpreter"
	"github.com/svmlang/svmc/internal/pipeline"
	"github.com/svmlang/svmc/internal/svm"
)

var log = commonlog.GetLogger("svmd")

type compileRequest struct {
	Source string `json:"source"`
	Format string `json:"format"` // "binary" (base64) or "text"
}

type compileResponse struct {
	RequestID string `json:"request_id"`
	Binary    string `json:"binary,omitempty"`
	Text      string `json:"text,omitempty"`
	Error     string `json:"error,omitempty"`
}

type runRequest struct {
	Source string `json:"source,omitempty"`
	Binary string `json:"binary,omitempty"` // base64-encoded container
}

type runResponse struct {
	RequestID string `json:"request_id"`
	Result    string `json:"result,omitempty"`
	Stdout    string `json:"stdout,omitempty"`
	Error     string `json:"error,omitempty"`
}

func handleCompile(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	var req compileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, compileResponse{RequestID: id, Error: err.Error()})
		return
	}

	log.Infof("[%s] compile request, %d bytes source", id, len(req.Source))

	program, err := pipeline.CompileSource(req.Source, compiler.DefaultOptions())
	if err != nil {
		log.Infof("[%s] compile failed: %s", id, err)
		writeJSON(w, http.StatusUnprocessableEntity, compileResponse{RequestID: id, Error: err.Error()})
		return
	}

	if req.Format == "text" {
		writeJSON(w, http.StatusOK, compileResponse{RequestID: id, Text: assembler.DisassembleText(program)})
		return
	}

	data, err := assembler.Assemble(program)
	if err != nil {
		log.Infof("[%s] assemble failed: %s", id, err)
		writeJSON(w, http.StatusUnprocessableEntity, compileResponse{RequestID: id, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, compileResponse{RequestID: id, Binary: base64.StdEncoding.EncodeToString(data)})
}

func handleRun(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, runResponse{RequestID: id, Error: err.Error()})
		return
	}

	log.Infof("[%s] run request", id)

	program, err := resolveProgram(req)
	if err != nil {
		log.Infof("[%s] resolve failed: %s", id, err)
		writeJSON(w, http.StatusUnprocessableEntity, runResponse{RequestID: id, Error: err.Error()})
		return
	}

	it := interpreter.New(program, config.DefaultLimits())
	result, err := it.Run()
	if err != nil {
		log.Infof("[%s] run failed: %s", id, err)
		writeJSON(w, http.StatusUnprocessableEntity, runResponse{RequestID: id, Stdout: result.Stdout, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, runResponse{RequestID: id, Result: result.Value.String(), Stdout: result.Stdout})
}

func resolveProgram(req runRequest) (*svm.SVMProgram, error) {
	if req.Source != "" {
		return pipeline.CompileSource(req.Source, compiler.DefaultOptions())
	}
	data, err := base64.StdEncoding.DecodeString(req.Binary)
	if err != nil {
		return nil, err
	}
	return assembler.Disassemble(data)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func main() {
	commonlog.Configure(1, nil)

	addr := os.Getenv("SVMD_ADDR")
	if addr == "" {
		addr = ":8085"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/compile", handleCompile)
	mux.HandleFunc("/run", handleRun)

	log.Infof("svmd listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Errorf("server exited: %s", err)
		os.Exit(1)
	}
}

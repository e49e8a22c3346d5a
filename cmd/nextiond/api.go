package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/speters/gonextion/nextion"
)

// display is the part of *nextion.Device the HTTP API needs
type display interface {
	Page() uint8
	Send(cmds ...nextion.Cmd) error
}

type api struct {
	dev      display
	hub      *hub
	gatherer prometheus.Gatherer
}

func (a *api) router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/version", versionInfo).Methods("GET")
	router.HandleFunc("/page", a.getPage).Methods("GET")
	router.HandleFunc("/page", a.requestPage).Methods("POST")
	router.HandleFunc("/page/{n:[0-9]+}", a.setPage).Methods("POST")
	router.HandleFunc("/text/{cmp}", a.setText).Methods("POST")
	router.HandleFunc("/vis/{cmp}/{state}", a.setVisibility).Methods("POST")
	router.HandleFunc("/click/{cmp}", a.clickButton).Methods("POST")
	router.HandleFunc("/bco/{cmp}", a.setBackgroundColor).Methods("POST")
	router.HandleFunc("/circle", a.drawCircle).Methods("POST")
	router.HandleFunc("/cmd", a.rawCmd).Methods("POST")
	router.Handle("/events", a.hub).Methods("GET")
	router.Handle("/metrics", promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{})).Methods("GET")

	return router
}

func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(http.StatusOK)
	v := struct {
		Version   string `json:"version"`
		BuildDate string `json:"build_date"`
	}{Version: buildVersion, BuildDate: buildDate}
	j, _ := json.Marshal(v)
	w.Write(j)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	e := json.NewEncoder(w)
	e.SetIndent("", "    ")
	e.Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "text/plain; charset=UTF-8")
	w.WriteHeader(status)
	w.Write([]byte(err.Error()))
}

// send writes cmds and answers "OK", or 502 if the display link failed
func (a *api) send(w http.ResponseWriter, cmds ...nextion.Cmd) {
	if err := a.dev.Send(cmds...); err != nil {
		log.Errorf("HTTP command failed: %v", err)
		writeError(w, http.StatusBadGateway, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("\"OK\"\n"))
}

// decodeString reads a JSON string body
func decodeString(r *http.Request) (string, error) {
	var s string
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		return "", fmt.Errorf("expected a JSON string: %w", err)
	}
	return s, nil
}

func (a *api) getPage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nextion.PageEvent{Page: a.dev.Page()})
}

func (a *api) requestPage(w http.ResponseWriter, r *http.Request) {
	a.send(w, nextion.RequestPage())
}

func (a *api) setPage(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.ParseUint(mux.Vars(r)["n"], 10, 8)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid page: %w", err))
		return
	}
	a.send(w, nextion.SetPage(uint(n)))
}

func (a *api) setText(w http.ResponseWriter, r *http.Request) {
	text, err := decodeString(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	a.send(w, nextion.SetText(mux.Vars(r)["cmp"], text))
}

func (a *api) setVisibility(w http.ResponseWriter, r *http.Request) {
	params := mux.Vars(r)
	visible, err := strconv.ParseBool(params["state"])
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid visibility %q", params["state"]))
		return
	}
	a.send(w, nextion.SetVisibility(params["cmp"], visible))
}

func (a *api) clickButton(w http.ResponseWriter, r *http.Request) {
	a.send(w, nextion.ClickButton(mux.Vars(r)["cmp"])...)
}

func (a *api) setBackgroundColor(w http.ResponseWriter, r *http.Request) {
	s, err := decodeString(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	c, err := nextion.ParseColor(s)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	a.send(w, nextion.SetBackgroundColor(mux.Vars(r)["cmp"], c)...)
}

type circleRequest struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	R      int    `json:"r"`
	Color  string `json:"color"`
	Filled bool   `json:"filled"`
}

func (a *api) drawCircle(w http.ResponseWriter, r *http.Request) {
	var req circleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.R < 0 {
		writeError(w, http.StatusBadRequest, errors.New("negative radius"))
		return
	}
	c, err := nextion.ParseColor(req.Color)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Filled {
		a.send(w, nextion.DrawFilledCircle(req.X, req.Y, req.R, c))
		return
	}
	a.send(w, nextion.DrawCircle(req.X, req.Y, req.R, c))
}

func (a *api) rawCmd(w http.ResponseWriter, r *http.Request) {
	cmd, err := decodeString(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	a.send(w, nextion.Raw(cmd))
}

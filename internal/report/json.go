package report

import (
	"encoding/json"
	"io"

	"gonum.org/v1/gonum/mat"

	"github.com/roach88/farsight/internal/equilibrium"
	"github.com/roach88/farsight/internal/experiment"
	"github.com/roach88/farsight/internal/game"
	"github.com/roach88/farsight/internal/transition"
	"github.com/roach88/farsight/internal/valuefn"
)

// Document is the JSON form of an experiment result. Matrices are rows in
// States order; table columns follow Players.
type Document struct {
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Mode        string               `json:"mode"`
	Discounting float64              `json:"discounting"`
	Players     []string             `json:"players"`
	States      []string             `json:"states"`
	Transition  [][]float64          `json:"transition"`
	Payoffs     [][]float64          `json:"payoffs"`
	Values      [][]float64          `json:"values"`
	Deployment  map[string]float64   `json:"deployment,omitempty"`
	Warnings    []transition.Warning `json:"warnings,omitempty"`
	Report      equilibrium.Report   `json:"report"`
}

// NewDocument converts res to its JSON form.
func NewDocument(res *experiment.Result) Document {
	doc := Document{
		Name:        res.Name,
		Description: res.Description,
		Mode:        res.Mode.String(),
		Discounting: res.Discount,
		States:      game.StateNames(res.States),
		Transition:  rows(res.Transition.P),
		Payoffs:     tableRows(res.Payoffs),
		Values:      tableRows(res.Values),
		Warnings:    res.Transition.Warnings,
		Report:      res.Report,
	}
	for _, p := range res.Players {
		doc.Players = append(doc.Players, string(p))
	}
	if len(res.Deployment) > 0 {
		doc.Deployment = make(map[string]float64, len(res.Deployment))
		for s, g := range res.Deployment {
			doc.Deployment[s] = clean(g)
		}
	}
	return doc
}

// WriteJSON writes res as indented JSON.
func WriteJSON(w io.Writer, res *experiment.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(res))
}

func tableRows(t *valuefn.Table) [][]float64 {
	if t == nil || t.Values == nil {
		return nil
	}
	return rows(t.Values)
}

func rows(m mat.Matrix) [][]float64 {
	r, c := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = make([]float64, c)
		for j := range out[i] {
			out[i][j] = clean(m.At(i, j))
		}
	}
	return out
}

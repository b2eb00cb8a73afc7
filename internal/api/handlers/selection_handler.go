package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/fitonboard/backend/internal/metrics"
	"github.com/fitonboard/backend/internal/selection"
	"github.com/fitonboard/backend/pkg/apperrors"
)

// SelectionHandler serves the body-area and equipment pickers. It keeps no
// state: clients send their current selection map and get the updated one
// back.
type SelectionHandler struct {
	catalogs map[string]*selection.Catalog
}

func NewSelectionHandler(catalogs ...*selection.Catalog) *SelectionHandler {
	h := &SelectionHandler{catalogs: make(map[string]*selection.Catalog, len(catalogs))}
	for _, cat := range catalogs {
		h.catalogs[cat.Name()] = cat
	}
	return h
}

type catalogNode struct {
	Key      string          `json:"key"`
	Label    string          `json:"label"`
	Level    selection.Level `json:"level"`
	Children []catalogNode   `json:"children,omitempty"`
}

type selectionRequest struct {
	Data selection.Data `json:"data"`
	Key  string         `json:"key"`
}

type disclosureRequest struct {
	Level  int            `json:"level"`
	Action string         `json:"action"`
	Data   selection.Data `json:"data"`
}

func (h *SelectionHandler) catalog(c *fiber.Ctx) (*selection.Catalog, error) {
	name := c.Params("catalog")
	cat, ok := h.catalogs[name]
	if !ok {
		return nil, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("unknown catalog %q", name))
	}
	return cat, nil
}

func (h *SelectionHandler) GetCatalog(c *fiber.Ctx) error {
	cat, err := h.catalog(c)
	if err != nil {
		return respondError(c, err)
	}

	roots := cat.Roots()
	tree := make([]catalogNode, 0, len(roots))
	for _, r := range roots {
		tree = append(tree, buildTree(cat, r))
	}
	return c.JSON(fiber.Map{
		"name":  cat.Name(),
		"nodes": tree,
	})
}

func buildTree(cat *selection.Catalog, e selection.Entry) catalogNode {
	node := catalogNode{Key: e.Key, Label: e.Label, Level: e.Level}
	for _, child := range cat.ChildrenOf(e.Key) {
		node.Children = append(node.Children, buildTree(cat, child))
	}
	return node
}

// parse reads and checks the incoming selection before anything mutates it.
func (h *SelectionHandler) parse(c *fiber.Ctx) (*selection.Catalog, selectionRequest, error) {
	var req selectionRequest
	cat, err := h.catalog(c)
	if err != nil {
		return nil, req, err
	}
	if err := c.BodyParser(&req); err != nil {
		return nil, req, apperrors.Wrap(err, apperrors.CodeValidation, "invalid request body")
	}
	if req.Data == nil {
		req.Data = selection.Data{}
	}
	if err := req.Data.Validate(); err != nil {
		return nil, req, err
	}
	return cat, req, nil
}

func (h *SelectionHandler) Select(c *fiber.Ctx) error {
	cat, req, err := h.parse(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := req.Data.Select(cat, req.Key); err != nil {
		return respondError(c, err)
	}
	metrics.SelectionChanges.WithLabelValues(cat.Name(), "select").Inc()
	return c.JSON(selectionResponse(req.Data, nil))
}

func (h *SelectionHandler) Deselect(c *fiber.Ctx) error {
	cat, req, err := h.parse(c)
	if err != nil {
		return respondError(c, err)
	}
	removed := req.Data.Deselect(req.Key)
	if len(removed) > 0 {
		metrics.SelectionChanges.WithLabelValues(cat.Name(), "deselect").Inc()
	}
	return c.JSON(selectionResponse(req.Data, fiber.Map{"removed": nonNilStrings(removed)}))
}

func (h *SelectionHandler) Toggle(c *fiber.Ctx) error {
	cat, req, err := h.parse(c)
	if err != nil {
		return respondError(c, err)
	}
	selected, err := req.Data.Toggle(cat, req.Key)
	if err != nil {
		return respondError(c, err)
	}
	metrics.SelectionChanges.WithLabelValues(cat.Name(), "toggle").Inc()
	return c.JSON(selectionResponse(req.Data, fiber.Map{"selected": selected}))
}

func (h *SelectionHandler) Validate(c *fiber.Ctx) error {
	if _, _, err := h.parse(c); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"valid": true})
}

// Disclosure moves the progressive-reveal wizard and lists what it shows.
func (h *SelectionHandler) Disclosure(c *fiber.Ctx) error {
	cat, err := h.catalog(c)
	if err != nil {
		return respondError(c, err)
	}
	var req disclosureRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	if req.Level < selection.MinDisclosure || req.Level > selection.MaxDisclosure {
		return respondError(c, apperrors.Validation("level must be between 1 and 4",
			apperrors.FieldError{Field: "level", Message: "level must be between 1 and 4"}))
	}
	if req.Data == nil {
		req.Data = selection.Data{}
	}
	if err := req.Data.Validate(); err != nil {
		return respondError(c, err)
	}

	d := &selection.Disclosure{Level: req.Level}
	switch req.Action {
	case "advance":
		if err := d.Advance(cat, req.Data); err != nil {
			return respondError(c, err)
		}
	case "retreat":
		d.Retreat()
	case "", "visible":
	default:
		return respondError(c, apperrors.Validation("unknown action",
			apperrors.FieldError{Field: "action", Message: "action must be advance, retreat or visible"}))
	}

	visible := d.Visible(cat, req.Data)
	if visible == nil {
		visible = []selection.Entry{}
	}
	return c.JSON(fiber.Map{
		"level":   d.Level,
		"review":  d.Level == selection.MaxDisclosure,
		"visible": visible,
	})
}

func selectionResponse(data selection.Data, extra fiber.Map) fiber.Map {
	leaves := data.Leaves()
	out := fiber.Map{
		"data":   data,
		"keys":   nonNilStrings(data.SelectedKeys()),
		"leaves": nonNilStrings(leaves),
		"labels": data.Labels(leaves),
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

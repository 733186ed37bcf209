package sexp

import (
	"fmt"
	"strconv"

	"github.com/OpenTraceLab/pdk2kicad/pkg/kicad/sexp/kicadsexp"
)

// Items returns the elements of a list, or nil for atoms.
func Items(s kicadsexp.Sexp) []kicadsexp.Sexp {
	if l, ok := s.(*kicadsexp.List); ok {
		return l.Items()
	}
	return nil
}

// GetNodeName returns the keyword heading a list, e.g. "pin" for (pin ...).
func GetNodeName(s kicadsexp.Sexp) (string, error) {
	items := Items(s)
	if len(items) == 0 {
		return "", fmt.Errorf("expected non-empty list")
	}
	if head, ok := items[0].(kicadsexp.Symbol); ok {
		return string(head), nil
	}
	return "", fmt.Errorf("list starts with %T, not a keyword", items[0])
}

// IsNode reports whether s is a list headed by key.
func IsNode(s kicadsexp.Sexp, key string) bool {
	name, err := GetNodeName(s)
	return err == nil && name == key
}

// FindNode returns the first direct child of s headed by key.
func FindNode(s kicadsexp.Sexp, key string) (kicadsexp.Sexp, bool) {
	nodes := children(s, key, 1)
	if len(nodes) == 0 {
		return nil, false
	}
	return nodes[0], true
}

// FindAllNodes returns every direct child of s headed by key, in order.
func FindAllNodes(s kicadsexp.Sexp, key string) []kicadsexp.Sexp {
	return children(s, key, -1)
}

// children collects up to limit children headed by key; limit < 0 means all.
func children(s kicadsexp.Sexp, key string, limit int) []kicadsexp.Sexp {
	var found []kicadsexp.Sexp
	for _, item := range Items(s) {
		if limit >= 0 && len(found) == limit {
			break
		}
		if IsNode(item, key) {
			found = append(found, item)
		}
	}
	return found
}

func at(s kicadsexp.Sexp, index int) (kicadsexp.Sexp, error) {
	items := Items(s)
	if index < 0 || index >= len(items) {
		return nil, fmt.Errorf("no element %d in list of %d", index, len(items))
	}
	return items[index], nil
}

// GetString returns the atom at index, quoted or bare. Index 0 is the
// keyword itself.
func GetString(s kicadsexp.Sexp, index int) (string, error) {
	item, err := at(s, index)
	if err != nil {
		return "", err
	}
	switch v := item.(type) {
	case kicadsexp.String:
		return string(v), nil
	case kicadsexp.Symbol:
		return string(v), nil
	default:
		return "", fmt.Errorf("element %d is %T, not an atom", index, item)
	}
}

// GetQuotedString returns the quoted string at index and rejects bare
// symbols, so (name "hide") and (name hide) stay distinguishable.
func GetQuotedString(s kicadsexp.Sexp, index int) (string, error) {
	item, err := at(s, index)
	if err != nil {
		return "", err
	}
	str, ok := item.(kicadsexp.String)
	if !ok {
		return "", fmt.Errorf("element %d is %T, not a quoted string", index, item)
	}
	return string(str), nil
}

// GetFloat parses the atom at index as a number.
func GetFloat(s kicadsexp.Sexp, index int) (float64, error) {
	text, err := GetString(s, index)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("element %d: %q is not a number", index, text)
	}
	return v, nil
}

// GetInt parses the atom at index as an integer.
func GetInt(s kicadsexp.Sexp, index int) (int, error) {
	text, err := GetString(s, index)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("element %d: %q is not an integer", index, text)
	}
	return v, nil
}

// HasSymbol reports whether a bare keyword such as hide appears among the
// elements of s. Quoted strings do not count.
func HasSymbol(s kicadsexp.Sexp, symbol string) bool {
	for _, item := range Items(s) {
		if sym, ok := item.(kicadsexp.Symbol); ok && string(sym) == symbol {
			return true
		}
	}
	return false
}

// GetFlag reads (key yes|no) below s. A missing or malformed node gives def.
func GetFlag(s kicadsexp.Sexp, key string, def bool) bool {
	node, ok := FindNode(s, key)
	if !ok {
		return def
	}
	switch v, _ := GetString(node, 1); v {
	case "yes":
		return true
	case "no":
		return false
	default:
		return def
	}
}

// pair reads two numbers starting at index.
func pair(s kicadsexp.Sexp, index int) (float64, float64, error) {
	a, err := GetFloat(s, index)
	if err != nil {
		return 0, 0, err
	}
	b, err := GetFloat(s, index+1)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func expect(s kicadsexp.Sexp, key string) error {
	if IsNode(s, key) {
		return nil
	}
	return fmt.Errorf("expected (%s ...)", key)
}

// GetPosition reads (at X Y [angle]).
func GetPosition(s kicadsexp.Sexp) (PositionAngle, error) {
	if err := expect(s, "at"); err != nil {
		return PositionAngle{}, err
	}
	x, y, err := pair(s, 1)
	if err != nil {
		return PositionAngle{}, fmt.Errorf("at: %w", err)
	}
	pa := PositionAngle{Position: Position{X: x, Y: y}}
	if len(Items(s)) > 3 {
		angle, err := GetFloat(s, 3)
		if err != nil {
			return PositionAngle{}, fmt.Errorf("at: %w", err)
		}
		pa.Angle = Angle(angle)
	}
	return pa, nil
}

// GetPositionXY reads the coordinates of (start X Y), (end X Y) and
// similar nodes.
func GetPositionXY(s kicadsexp.Sexp) (Position, error) {
	x, y, err := pair(s, 1)
	if err != nil {
		return Position{}, err
	}
	return Position{X: x, Y: y}, nil
}

// GetStroke reads (stroke (width W) (type T) [(color R G B A)]). Missing
// parts keep their defaults.
func GetStroke(s kicadsexp.Sexp) (Stroke, error) {
	st := Stroke{Type: "default"}
	if err := expect(s, "stroke"); err != nil {
		return st, err
	}
	if n, ok := FindNode(s, "width"); ok {
		st.Width, _ = GetFloat(n, 1)
	}
	if n, ok := FindNode(s, "type"); ok {
		if t, err := GetString(n, 1); err == nil {
			st.Type = t
		}
	}
	if n, ok := FindNode(s, "color"); ok {
		if c, err := GetColor(n); err == nil {
			st.Color = c
		}
	}
	return st, nil
}

// GetFill reads (fill (type none|outline|background)).
func GetFill(s kicadsexp.Sexp) (Fill, error) {
	f := Fill{Type: "none"}
	if err := expect(s, "fill"); err != nil {
		return f, err
	}
	if n, ok := FindNode(s, "type"); ok {
		if t, err := GetString(n, 1); err == nil {
			f.Type = t
		}
	}
	return f, nil
}

// GetColor reads (color R G B [A]).
func GetColor(s kicadsexp.Sexp) (Color, error) {
	var rgb [3]int
	for i := range rgb {
		v, err := GetInt(s, i+1)
		if err != nil {
			return Color{}, fmt.Errorf("color: %w", err)
		}
		rgb[i] = v
	}
	c := Color{R: rgb[0], G: rgb[1], B: rgb[2]}
	c.A, _ = GetFloat(s, 4)
	return c, nil
}

// GetEffects reads (effects (font ...) (justify ...) [hide]).
func GetEffects(s kicadsexp.Sexp) (Effects, error) {
	var e Effects
	if err := expect(s, "effects"); err != nil {
		return e, err
	}
	if n, ok := FindNode(s, "font"); ok {
		e.Font = GetFont(n)
	}
	if n, ok := FindNode(s, "justify"); ok {
		e.Justify = GetJustify(n)
	}
	e.Hide = HasSymbol(s, "hide") || GetFlag(s, "hide", false)
	return e, nil
}

// GetFont reads (font (size H W) [bold] [italic]).
func GetFont(s kicadsexp.Sexp) Font {
	f := Font{Bold: HasSymbol(s, "bold"), Italic: HasSymbol(s, "italic")}
	if n, ok := FindNode(s, "size"); ok {
		if w, h, err := pair(n, 1); err == nil {
			f.Size = Size{Width: w, Height: h}
		}
	}
	return f
}

// GetJustify reads (justify [left|right] [top|bottom] [mirror]).
func GetJustify(s kicadsexp.Sexp) Justify {
	var j Justify
	for _, item := range Items(s) {
		switch sym, _ := item.(kicadsexp.Symbol); sym {
		case "left", "right":
			j.Horizontal = string(sym)
		case "top", "bottom":
			j.Vertical = string(sym)
		case "mirror":
			j.Mirror = true
		}
	}
	return j
}

// GetProperty reads (property "key" "value" [(id N)] [(at ...)] [(effects ...)]).
func GetProperty(s kicadsexp.Sexp) (Property, error) {
	var p Property
	if err := expect(s, "property"); err != nil {
		return p, err
	}
	var err error
	if p.Key, err = GetQuotedString(s, 1); err != nil {
		return p, fmt.Errorf("property key: %w", err)
	}
	if p.Value, err = GetQuotedString(s, 2); err != nil {
		return p, fmt.Errorf("property %s value: %w", p.Key, err)
	}
	if n, ok := FindNode(s, "id"); ok {
		if p.ID, err = GetInt(n, 1); err != nil {
			return p, fmt.Errorf("property %s id: %w", p.Key, err)
		}
	}
	if n, ok := FindNode(s, "at"); ok {
		p.Position, _ = GetPosition(n)
	}
	if n, ok := FindNode(s, "effects"); ok {
		p.Effects, _ = GetEffects(n)
	}
	return p, nil
}

// GetRectangle reads (rectangle (start ..) (end ..) [(stroke ..)] [(fill ..)]).
func GetRectangle(s kicadsexp.Sexp) (Rectangle, error) {
	var r Rectangle
	if err := expect(s, "rectangle"); err != nil {
		return r, err
	}
	for _, corner := range []struct {
		key string
		dst *Position
	}{{"start", &r.Start}, {"end", &r.End}} {
		n, ok := FindNode(s, corner.key)
		if !ok {
			return r, fmt.Errorf("rectangle without %s", corner.key)
		}
		pos, err := GetPositionXY(n)
		if err != nil {
			return r, fmt.Errorf("rectangle %s: %w", corner.key, err)
		}
		*corner.dst = pos
	}
	if n, ok := FindNode(s, "stroke"); ok {
		r.Stroke, _ = GetStroke(n)
	}
	if n, ok := FindNode(s, "fill"); ok {
		r.Fill, _ = GetFill(n)
	}
	return r, nil
}

// GetPin reads (pin <electrical> <style> (at ..) (length ..) (name ..) (number ..)).
func GetPin(s kicadsexp.Sexp) (Pin, error) {
	var p Pin
	if err := expect(s, "pin"); err != nil {
		return p, err
	}
	var err error
	if p.Electrical, err = GetString(s, 1); err != nil {
		return p, fmt.Errorf("pin type: %w", err)
	}
	if p.Style, err = GetString(s, 2); err != nil {
		return p, fmt.Errorf("pin style: %w", err)
	}
	n, ok := FindNode(s, "at")
	if !ok {
		return p, fmt.Errorf("pin without position")
	}
	if p.Position, err = GetPosition(n); err != nil {
		return p, err
	}
	if n, ok := FindNode(s, "length"); ok {
		p.Length, _ = GetFloat(n, 1)
	}
	p.Name, p.NameHidden = pinText(s, "name")
	p.Number, p.NumberHide = pinText(s, "number")
	return p, nil
}

// pinText reads (key "text" (effects ... [hide])) of a pin.
func pinText(pin kicadsexp.Sexp, key string) (string, bool) {
	n, ok := FindNode(pin, key)
	if !ok {
		return "", false
	}
	text, _ := GetQuotedString(n, 1)
	hidden := false
	if e, ok := FindNode(n, "effects"); ok {
		hidden = HasSymbol(e, "hide")
	}
	return text, hidden
}

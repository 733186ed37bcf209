package lef

import "github.com/alecthomas/participle/v2/lexer"

// Library represents a complete LEF cell library file.
// A library is a list of top-level statements closed by END LIBRARY.
type Library struct {
	Pos        lexer.Position
	Statements []*LibraryStatement `@@*`
	Terminator string              `"END" @"LIBRARY"`
}

// LibraryStatement is one top-level statement. Exactly one field is set.
type LibraryStatement struct {
	Version           *string                  `  "VERSION" @( Version | Number ) Semicolon`
	ManufacturingGrid *float64                 `| "MANUFACTURINGGRID" @Number Semicolon`
	WireExtension     *string                  `| "NOWIREEXTENSIONATPIN" @( "ON" | "OFF" ) Semicolon`
	CaseSensitive     *string                  `| "NAMESCASESENSITIVE" @( "ON" | "OFF" ) Semicolon`
	DividerChar       *String                  `| "DIVIDERCHAR" @@ Semicolon`
	BusBitChars       *String                  `| "BUSBITCHARS" @@ Semicolon`
	Units             *Units                   `| @@`
	PropertyDefs      *PropertyDefinitions     `| @@`
	Macro             *Macro                   `| @@`
	Unknown           *UnknownLibraryStatement `| @@`
}

// String is a quoted string literal, stored with its quotes.
type String struct {
	Pos   lexer.Position
	Value string `@String`
}

// GetValue returns the string value without quotes
func (s *String) GetValue() string {
	if s == nil {
		return ""
	}
	return unquote(s.Value)
}

func unquote(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		return v[1 : len(v)-1]
	}
	return v
}

// Units is the UNITS ... END UNITS block.
type Units struct {
	Pos     lexer.Position
	Entries []*UnitEntry `"UNITS" @@* "END" "UNITS"`
}

// UnitEntry is a keyword pair plus a numeric value.
// Example: DATABASE MICRONS 1000 ;
type UnitEntry struct {
	Pos   lexer.Position
	Kind  string  `@( "TIME" | "CAPACITANCE" | "RESISTANCE" | "POWER" | "CURRENT" | "VOLTAGE" | "DATABASE" | "FREQUENCY" )`
	Unit  string  `@Ident`
	Value float64 `@Number Semicolon`
}

// PropertyDefinitions is the PROPERTYDEFINITIONS block.
type PropertyDefinitions struct {
	Pos         lexer.Position
	Definitions []*PropertyDefinition `"PROPERTYDEFINITIONS" @@* "END" "PROPERTYDEFINITIONS"`
}

// PropertyDefinition declares a property name for one object type.
// Example: MACRO maskLayoutSubType STRING ;
type PropertyDefinition struct {
	Pos     lexer.Position
	Object  string      `@( "LIBRARY" | "LAYER" | "VIA" | "VIARULE" | "NONDEFAULTRULE" | "MACRO" | "PIN" | "COMPONENT" | "NET" | "SPECIALNET" | "GROUP" | "ROW" | "REGION" )`
	Name    string      `@Ident`
	Type    string      `@( "STRING" | "INTEGER" | "REAL" )`
	Range   *ValueRange `( "RANGE" @@ )?`
	Default *Value      `@@? Semicolon`
}

// ValueRange is the RANGE min max clause of a property definition.
type ValueRange struct {
	Min float64 `@Number`
	Max float64 `@Number`
}

// Value is a property value: a string, a number or a bare identifier.
type Value struct {
	String *String  `  @@`
	Number *float64 `| @Number`
	Ident  *string  `| @Ident`
}

// Macro represents one cell definition.
// Example: MACRO sky130_fd_sc_hd__buf_1 ... END sky130_fd_sc_hd__buf_1
type Macro struct {
	Pos        lexer.Position
	Name       string            `"MACRO" @Ident`
	Statements []*MacroStatement `@@*`
	EndPos     lexer.Position
	EndName    string `"END" @Ident`
}

// MacroStatement is one statement inside a macro body. Exactly one field is set.
type MacroStatement struct {
	Class       *Class                 `  @@`
	Foreign     *Foreign               `| @@`
	Origin      *Point                 `| "ORIGIN" @@ Semicolon`
	EEQ         *string                `| "EEQ" @Ident Semicolon`
	Size        *Size                  `| @@`
	Symmetry    *Symmetry              `| @@`
	Site        *SiteRef               `| @@`
	Pin         *Pin                   `| @@`
	Obstruction *Obstruction           `| @@`
	Density     *Density               `| @@`
	Property    *Property              `| @@`
	Unknown     *UnknownMacroStatement `| @@`
}

// Class is the CLASS statement: a class type with an optional subtype.
// Example: CLASS CORE TIEHIGH ;
type Class struct {
	Pos     lexer.Position
	Type    string `"CLASS" @( "COVER" | "RING" | "BLOCK" | "PAD" | "CORE" | "ENDCAP" )`
	Subtype string `@Ident? Semicolon`
}

// Foreign references the GDS cell, with an optional origin and orientation.
// Example: FOREIGN sky130_fd_sc_hd__buf_1 0 0 N ;
type Foreign struct {
	Pos         lexer.Position
	Name        string `"FOREIGN" @Ident`
	Origin      *Point `@@?`
	Orientation string `@( "N" | "S" | "E" | "W" | "FN" | "FS" | "FE" | "FW" )? Semicolon`
}

// Point is an x y coordinate pair in microns.
type Point struct {
	X float64 `@Number`
	Y float64 `@Number`
}

// Size is the SIZE w BY h statement.
type Size struct {
	Pos    lexer.Position
	Width  float64 `"SIZE" @Number`
	Height float64 `"BY" @Number Semicolon`
}

// Symmetry lists any combination of X, Y and R90.
type Symmetry struct {
	Pos   lexer.Position
	Flags []string `"SYMMETRY" @( "X" | "Y" | "R90" )+ Semicolon`
}

// SiteRef names the placement site, optionally as a stepped array.
// Example: SITE unithd ; or SITE core 0 0 N DO 4 BY 1 STEP 0.46 0 ;
type SiteRef struct {
	Pos         lexer.Position
	Name        string       `"SITE" @Ident`
	Origin      *Point       `( @@`
	Orientation string       `  @( "N" | "S" | "E" | "W" | "FN" | "FS" | "FE" | "FW" )`
	Pattern     *StepPattern `  @@? )? Semicolon`
}

// StepPattern is the DO n BY m STEP dx dy part of a site reference.
type StepPattern struct {
	Columns float64 `"DO" @Number`
	Rows    float64 `"BY" @Number`
	StepX   float64 `"STEP" @Number`
	StepY   float64 `@Number`
}

// Pin represents a PIN block.
// Example: PIN A DIRECTION INPUT ; USE SIGNAL ; PORT ... END END A
type Pin struct {
	Pos        lexer.Position
	Name       string          `"PIN" @Ident`
	Statements []*PinStatement `@@*`
	EndPos     lexer.Position
	EndName    string `"END" @Ident`
}

// PinStatement is one statement inside a pin block. Exactly one field is set.
type PinStatement struct {
	TaperRule         *string              `  "TAPERULE" @Ident Semicolon`
	Direction         *Direction           `| @@`
	Use               *Use                 `| @@`
	NetExpr           *String              `| "NETEXPR" @@ Semicolon`
	SupplySensitivity *string              `| "SUPPLYSENSITIVITY" @Ident Semicolon`
	GroundSensitivity *string              `| "GROUNDSENSITIVITY" @Ident Semicolon`
	Shape             *string              `| "SHAPE" @( "ABUTMENT" | "RING" | "FEEDTHRU" ) Semicolon`
	MustJoin          *string              `| "MUSTJOIN" @Ident Semicolon`
	Port              *Port                `| @@`
	Property          *Property            `| @@`
	Antenna           *Antenna             `| @@`
	AntennaModel      *string              `| "ANTENNAMODEL" @( "OXIDE1" | "OXIDE2" | "OXIDE3" | "OXIDE4" ) Semicolon`
	Unknown           *UnknownPinStatement `| @@`
}

// Direction is the DIRECTION statement.
// Example: DIRECTION OUTPUT TRISTATE ;
type Direction struct {
	Pos      lexer.Position
	Kind     string `"DIRECTION" @( "INPUT" | "OUTPUT" | "INOUT" | "FEEDTHRU" )`
	Tristate bool   `@"TRISTATE"? Semicolon`
}

// Use is the USE statement naming the pin's electrical role.
type Use struct {
	Pos  lexer.Position
	Kind string `"USE" @( "SIGNAL" | "ANALOG" | "POWER" | "GROUND" | "CLOCK" ) Semicolon`
}

// Antenna is one of the per-pin antenna area or ratio statements.
// Example: ANTENNAGATEAREA 0.126000 LAYER met1 ;
type Antenna struct {
	Pos   lexer.Position
	Kind  string  `@( "ANTENNAPARTIALMETALAREA" | "ANTENNAPARTIALMETALSIDEAREA" | "ANTENNAPARTIALCUTAREA" | "ANTENNADIFFAREA" | "ANTENNAGATEAREA" | "ANTENNAMAXAREACAR" | "ANTENNAMAXSIDEAREACAR" | "ANTENNAMAXCUTCAR" | "ANTENNAPARTIALDIFFAREA" )`
	Value float64 `@Number`
	Layer string  `( "LAYER" @Ident )? Semicolon`
}

// Port is a PORT block of layered geometry.
type Port struct {
	Pos    lexer.Position
	Class  string           `"PORT" ( "CLASS" @( "NONE" | "CORE" | "BUMP" ) Semicolon )?`
	Layers []*LayerGeometry `@@* "END"`
}

// Obstruction is the OBS block.
type Obstruction struct {
	Pos    lexer.Position
	Layers []*LayerGeometry `"OBS" @@* "END"`
}

// LayerGeometry is a LAYER statement followed by the shapes drawn on it.
type LayerGeometry struct {
	Pos    lexer.Position
	Layer  *LayerRef   `@@`
	Shapes []*Geometry `@@*`
}

// LayerRef names a layer with its optional spacing or design rule width.
// Example: LAYER met1 SPACING 0.14 ;
type LayerRef struct {
	Pos             lexer.Position
	Name            string   `"LAYER" @Ident`
	ExceptPGNet     bool     `@"EXCEPTPGNET"?`
	Spacing         *float64 `( "SPACING" @Number`
	DesignRuleWidth *float64 `| "DESIGNRULEWIDTH" @Number )? Semicolon`
}

// Geometry is a single shape. Exactly one field is set.
type Geometry struct {
	Width   *float64 `  "WIDTH" @Number Semicolon`
	Path    *Path    `| @@`
	Polygon *Polygon `| @@`
	Rect    *Rect    `| @@`
	Via     *Via     `| @@`
}

// Via places a named via at a point.
type Via struct {
	Pos    lexer.Position
	Origin *Point `"VIA" @@`
	Name   string `@Ident Semicolon`
}

// Path is a PATH of one or more points.
type Path struct {
	Pos    lexer.Position
	Points []*Point `"PATH" @@+ Semicolon`
}

// Polygon is a POLYGON of at least three points.
type Polygon struct {
	Pos    lexer.Position
	Points []*Point `"POLYGON" @@ @@ @@+ Semicolon`
}

// Rect is an axis-aligned rectangle with an optional trailing value
// (diffusion value in ports, density value in DENSITY blocks).
type Rect struct {
	Pos   lexer.Position
	X0    float64  `"RECT" @Number`
	Y0    float64  `@Number`
	X1    float64  `@Number`
	Y1    float64  `@Number`
	Value *float64 `@Number? Semicolon`
}

// Density is the DENSITY block.
type Density struct {
	Pos    lexer.Position
	Layers []*DensityLayer `"DENSITY" @@* "END"`
}

// DensityLayer holds the density rectangles of one layer.
type DensityLayer struct {
	Name  string  `"LAYER" @Ident Semicolon`
	Rects []*Rect `@@*`
}

// Property is a PROPERTY statement with one or more name/value pairs.
type Property struct {
	Pos   lexer.Position
	Pairs []*PropertyPair `"PROPERTY" @@+ Semicolon`
}

// PropertyPair is one name/value pair of a PROPERTY statement.
type PropertyPair struct {
	Name  string `@Ident`
	Value *Value `@@`
}

// UnknownLibraryStatement is a top-level statement outside the modelled set,
// kept as its keyword and raw argument tokens.
type UnknownLibraryStatement struct {
	Pos     lexer.Position
	Keyword string   `(?! "END" | "VERSION" | "MANUFACTURINGGRID" | "NOWIREEXTENSIONATPIN" | "NAMESCASESENSITIVE" | "DIVIDERCHAR" | "BUSBITCHARS" | "UNITS" | "PROPERTYDEFINITIONS" | "MACRO" ) @Ident`
	Args    []string `( @~Semicolon )* Semicolon`
}

// UnknownMacroStatement is a macro statement outside the modelled set.
type UnknownMacroStatement struct {
	Pos     lexer.Position
	Keyword string   `(?! "END" | "CLASS" | "FOREIGN" | "ORIGIN" | "EEQ" | "SIZE" | "SYMMETRY" | "SITE" | "PIN" | "OBS" | "DENSITY" | "PROPERTY" ) @Ident`
	Args    []string `( @~Semicolon )* Semicolon`
}

// UnknownPinStatement is a pin statement outside the modelled set.
type UnknownPinStatement struct {
	Pos     lexer.Position
	Keyword string   `(?! "END" | "TAPERULE" | "DIRECTION" | "USE" | "NETEXPR" | "SUPPLYSENSITIVITY" | "GROUNDSENSITIVITY" | "SHAPE" | "MUSTJOIN" | "PORT" | "PROPERTY" | "ANTENNAMODEL" | "ANTENNAPARTIALMETALAREA" | "ANTENNAPARTIALMETALSIDEAREA" | "ANTENNAPARTIALCUTAREA" | "ANTENNADIFFAREA" | "ANTENNAGATEAREA" | "ANTENNAMAXAREACAR" | "ANTENNAMAXSIDEAREACAR" | "ANTENNAMAXCUTCAR" | "ANTENNAPARTIALDIFFAREA" ) @Ident`
	Args    []string `( @~Semicolon )* Semicolon`
}

package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/goccy/go-json"

	"github.com/ironsheep/image-mosaic/internal/corpus"
	"github.com/ironsheep/image-mosaic/internal/imaging"
	"github.com/ironsheep/image-mosaic/internal/mosaic"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "mosaic_compose").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Corpus Operations
	case "mosaic_build_corpus":
		return s.handleBuildCorpus(ctx, args)
	case "mosaic_corpus_info":
		return s.handleCorpusInfo(args)

	// Composition
	case "mosaic_compose":
		return s.handleCompose(ctx, args)

	// Color Analysis
	case "mosaic_representative_colors":
		return s.handleRepresentativeColors(args)
	case "mosaic_nearest_tiles":
		return s.handleNearestTiles(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// unmarshalArgs decodes tool arguments into v.
func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return fmt.Errorf("missing arguments")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// === Corpus Handlers ===

type buildCorpusArgs struct {
	Dir         string `json:"dir"`
	TileFile    string `json:"tile_file"`
	MaxPixel    int    `json:"max_pixel"`
	Method      string `json:"method"`
	KeepBW      bool   `json:"keep_bw"`
	Compression string `json:"compression"`
	Workers     int    `json:"workers"`
}

// SkippedFile is a file left out of a corpus build.
type SkippedFile struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// BuildCorpusResult is returned by mosaic_build_corpus.
type BuildCorpusResult struct {
	TileFile  string        `json:"tile_file"`
	Found     int           `json:"found"`
	Tiles     int           `json:"tiles"`
	TileSize  int           `json:"tile_size"`
	ColorDims int           `json:"color_dims"`
	Skipped   []SkippedFile `json:"skipped"`
	ElapsedMS int64         `json:"elapsed_ms"`
}

func (s *Server) handleBuildCorpus(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a buildCorpusArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Dir == "" || a.TileFile == "" {
		return nil, fmt.Errorf("dir and tile_file are required")
	}
	if a.Method == "" {
		a.Method = imaging.SingleCluster.String()
	}
	if a.Compression == "" {
		a.Compression = corpus.DefaultCodec.Compression.String()
	}

	method, err := imaging.ParseMethod(a.Method)
	if err != nil {
		return nil, err
	}
	comp, err := corpus.ParseCompression(a.Compression)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	b := &corpus.Builder{
		MaxPixel: a.MaxPixel,
		Reducer:  imaging.Reducer{Method: method, KeepBlackWhite: a.KeepBW},
		Workers:  a.Workers,
	}
	corp, report, err := b.Build(ctx, a.Dir)
	if err != nil {
		return nil, err
	}
	if err := (corpus.Codec{Compression: comp}).WriteFile(a.TileFile, corp); err != nil {
		return nil, err
	}
	s.corpora.Evict(a.TileFile)

	res := &BuildCorpusResult{
		TileFile:  a.TileFile,
		Found:     report.Found,
		Tiles:     report.Tiles,
		TileSize:  corp.Size,
		ColorDims: corp.ColorDims(),
		Skipped:   []SkippedFile{},
		ElapsedMS: time.Since(start).Milliseconds(),
	}
	for _, sk := range report.Skipped {
		res.Skipped = append(res.Skipped, SkippedFile{Path: sk.Path, Error: sk.Err.Error()})
	}
	log.Printf("Built %s: %d tiles from %d files", a.TileFile, res.Tiles, res.Found)
	return res, nil
}

type tileFileArgs struct {
	TileFile string `json:"tile_file"`
}

// CorpusInfoResult is returned by mosaic_corpus_info.
type CorpusInfoResult struct {
	TileFile  string `json:"tile_file"`
	Tiles     int    `json:"tiles"`
	TileSize  int    `json:"tile_size"`
	Channels  int    `json:"channels"`
	ColorDims int    `json:"color_dims"`
}

func (s *Server) handleCorpusInfo(args json.RawMessage) (interface{}, error) {
	var a tileFileArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	lc, err := s.corpora.Load(a.TileFile)
	if err != nil {
		return nil, err
	}
	return &CorpusInfoResult{
		TileFile:  a.TileFile,
		Tiles:     lc.corp.Len(),
		TileSize:  lc.corp.Size,
		Channels:  lc.corp.Channels(),
		ColorDims: lc.corp.ColorDims(),
	}, nil
}

// === Composition Handlers ===

type composeArgs struct {
	InFile    string  `json:"in_file"`
	OutFile   string  `json:"out_file"`
	TileFile  string  `json:"tile_file"`
	MaxRes    int     `json:"max_res"`
	Neighbors int     `json:"neighbors"`
	Selection string  `json:"selection"`
	Seed      *uint64 `json:"seed"`
}

// ComposeResult is returned by mosaic_compose.
type ComposeResult struct {
	OutFile   string       `json:"out_file"`
	Width     int          `json:"width"`
	Height    int          `json:"height"`
	Columns   int          `json:"columns"`
	Rows      int          `json:"rows"`
	TileSize  int          `json:"tile_size"`
	Seed      uint64       `json:"seed"`
	Stats     mosaic.Stats `json:"stats"`
	ElapsedMS int64        `json:"elapsed_ms"`
}

func (s *Server) handleCompose(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a composeArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.InFile == "" || a.OutFile == "" || a.TileFile == "" {
		return nil, fmt.Errorf("in_file, out_file and tile_file are required")
	}
	if a.Selection == "" {
		a.Selection = mosaic.SelectUniform.String()
	}
	sel, err := mosaic.ParseSelection(a.Selection)
	if err != nil {
		return nil, err
	}
	seed := mosaic.NewSeed()
	if a.Seed != nil {
		seed = *a.Seed
	}

	start := time.Now()
	lc, err := s.corpora.Load(a.TileFile)
	if err != nil {
		return nil, err
	}
	target, err := s.cache.Load(a.InFile)
	if err != nil {
		return nil, err
	}

	comp, err := mosaic.New(lc.corp, lc.index, mosaic.Options{
		MaxResolution: a.MaxRes,
		Neighbors:     a.Neighbors,
		Selection:     sel,
		Seed:          seed,
	})
	if err != nil {
		return nil, err
	}
	res, err := comp.Compose(ctx, target)
	if err != nil {
		return nil, err
	}
	if err := imaging.Save(res.Canvas.Image(), a.OutFile); err != nil {
		return nil, err
	}

	return &ComposeResult{
		OutFile:   a.OutFile,
		Width:     res.Canvas.Width,
		Height:    res.Canvas.Height,
		Columns:   res.Columns,
		Rows:      res.Rows,
		TileSize:  res.TileSize,
		Seed:      seed,
		Stats:     res.Stats,
		ElapsedMS: time.Since(start).Milliseconds(),
	}, nil
}

// === Color Analysis Handlers ===

type representativeColorsArgs struct {
	Path      string  `json:"path"`
	Method    string  `json:"method"`
	KeepBW    bool    `json:"keep_bw"`
	Threshold float64 `json:"threshold"`
	Strict    bool    `json:"strict"`
}

// ColorInfo describes one color in a tool result.
type ColorInfo struct {
	Hex      string    `json:"hex"`
	Channels []float64 `json:"channels"`
}

func colorInfo(c imaging.Color) ColorInfo {
	return ColorInfo{Hex: c.Hex(), Channels: c}
}

// RepresentativeColorsResult is returned by mosaic_representative_colors.
type RepresentativeColorsResult struct {
	Path   string      `json:"path"`
	Method string      `json:"method"`
	Colors []ColorInfo `json:"colors"`
}

func (s *Server) handleRepresentativeColors(args json.RawMessage) (interface{}, error) {
	var a representativeColorsArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Method == "" {
		a.Method = imaging.SingleCluster.String()
	}
	if a.Threshold < 0 || a.Threshold > 1 {
		return nil, fmt.Errorf("threshold %g is outside (0, 1]", a.Threshold)
	}
	method, err := imaging.ParseMethod(a.Method)
	if err != nil {
		return nil, err
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	r := imaging.Reducer{Method: method, KeepBlackWhite: a.KeepBW, Threshold: a.Threshold, Strict: a.Strict}
	colors, err := r.Reduce(imaging.FromImage(img))
	if err != nil {
		return nil, err
	}

	res := &RepresentativeColorsResult{Path: a.Path, Method: method.String()}
	for _, c := range colors {
		res.Colors = append(res.Colors, colorInfo(c))
	}
	return res, nil
}

type nearestTilesArgs struct {
	TileFile string `json:"tile_file"`
	Color    string `json:"color"`
	K        int    `json:"k"`
}

// TileMatch is one tile in a mosaic_nearest_tiles result.
type TileMatch struct {
	Tile     int       `json:"tile"`
	Distance float64   `json:"distance"`
	Color    ColorInfo `json:"color"`
}

// NearestTilesResult is returned by mosaic_nearest_tiles.
type NearestTilesResult struct {
	Query ColorInfo   `json:"query"`
	Tiles []TileMatch `json:"tiles"`
}

func (s *Server) handleNearestTiles(args json.RawMessage) (interface{}, error) {
	var a nearestTilesArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.K == 0 {
		a.K = mosaic.DefaultNeighbors
	}
	query, err := imaging.ParseHex(a.Color)
	if err != nil {
		return nil, err
	}

	lc, err := s.corpora.Load(a.TileFile)
	if err != nil {
		return nil, err
	}
	query = query.Narrow(lc.index.Dims())
	nn, err := lc.index.Nearest(query, a.K)
	if err != nil {
		return nil, err
	}

	res := &NearestTilesResult{Query: colorInfo(query), Tiles: make([]TileMatch, 0, len(nn))}
	for _, n := range nn {
		res.Tiles = append(res.Tiles, TileMatch{
			Tile:     n.Tile,
			Distance: n.Distance,
			Color:    colorInfo(lc.corp.Colors[n.Tile]),
		})
	}
	return res, nil
}

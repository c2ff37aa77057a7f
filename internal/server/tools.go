package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Corpus Operations
		{
			Name:        "mosaic_build_corpus",
			Description: "Build a tile corpus from every image in a directory and write it to a tile file. Unreadable files are skipped and listed in the result.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"dir": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the directory of tile images",
					},
					"tile_file": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path of the tile file to write",
					},
					"max_pixel": map[string]interface{}{
						"type":        "integer",
						"description": "Side length of the square thumbnails. Default 60",
						"default":     60,
					},
					"method": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"single-cluster", "quantized-vote"},
						"description": "Representative color method. Default single-cluster",
						"default":     "single-cluster",
					},
					"keep_bw": map[string]interface{}{
						"type":        "boolean",
						"description": "Keep transparent black and white pixels when averaging. Default false",
						"default":     false,
					},
					"compression": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"zstd", "lz4", "none"},
						"description": "Tile file compression. Default zstd",
						"default":     "zstd",
					},
					"workers": map[string]interface{}{
						"type":        "integer",
						"description": "Number of files decoded concurrently. Default: number of CPUs",
					},
				},
				"required": []string{"dir", "tile_file"},
			},
		},
		{
			Name:        "mosaic_corpus_info",
			Description: "Describe a tile file: number of tiles, tile size, thumbnail channels and color dimension.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"tile_file": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the tile file",
					},
				},
				"required": []string{"tile_file"},
			},
		},

		// Composition
		{
			Name:        "mosaic_compose",
			Description: "Compose a photographic mosaic of a target image from a tile file and write it to an output image. The output format follows the output file extension.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"in_file": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the target image",
					},
					"out_file": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path of the mosaic image to write",
					},
					"tile_file": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the tile file",
					},
					"max_res": map[string]interface{}{
						"type":        "integer",
						"description": "Longer side of the downsampled target in blocks. Default 125",
						"default":     125,
					},
					"neighbors": map[string]interface{}{
						"type":        "integer",
						"description": "Number of nearest tiles each block chooses from. Default 3",
						"default":     3,
					},
					"selection": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"uniform", "weighted"},
						"description": "How a block picks among its nearest tiles. Default uniform",
						"default":     "uniform",
					},
					"seed": map[string]interface{}{
						"type":        "integer",
						"description": "Random seed for reproducible output. Default: a fresh seed, returned in the result",
					},
				},
				"required": []string{"in_file", "out_file", "tile_file"},
			},
		},

		// Color Analysis
		{
			Name:        "mosaic_representative_colors",
			Description: "Compute the representative colors of an image with the same reduction used for tiles.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"method": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"single-cluster", "quantized-vote"},
						"description": "Representative color method. Default single-cluster",
						"default":     "single-cluster",
					},
					"keep_bw": map[string]interface{}{
						"type":        "boolean",
						"description": "Keep transparent black and white pixels when averaging. Default false",
						"default":     false,
					},
					"threshold": map[string]interface{}{
						"type":        "number",
						"description": "Pixel share accumulated by quantized-vote (0-1]. Default 0.6",
						"default":     0.6,
					},
					"strict": map[string]interface{}{
						"type":        "boolean",
						"description": "Fail instead of falling back when every pixel is filtered. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "mosaic_nearest_tiles",
			Description: "Find the tiles whose representative colors are closest to a color.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"tile_file": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the tile file",
					},
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Query color as hex (e.g., \"#ff8800\")",
					},
					"k": map[string]interface{}{
						"type":        "integer",
						"description": "Number of tiles to return. Default 3",
						"default":     3,
					},
				},
				"required": []string{"tile_file", "color"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}

package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/a3tai/mcp-drawing-fields/internal/descriptions"
)

// DirectoryCache keeps directory scan results for a fixed TTL
type DirectoryCache struct {
	entries map[string]*cacheEntry
	ttl     time.Duration
	mu      sync.RWMutex
}

type cacheEntry struct {
	files      []FileInfo
	truncated  bool
	lastUpdate time.Time
	scanning   bool
}

// NewDirectoryCache creates a new directory cache with specified TTL
func NewDirectoryCache(ttl time.Duration) *DirectoryCache {
	return &DirectoryCache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
	}
}

// Get returns the cached scan of dir, or false when missing or expired
func (c *DirectoryCache) Get(dir string) (*ScanResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[dir]
	if !ok || entry.lastUpdate.IsZero() || time.Since(entry.lastUpdate) > c.ttl {
		return nil, false
	}
	return &ScanResult{
		Files:     entry.files,
		Truncated: entry.truncated,
		FromCache: true,
		CacheAge:  time.Since(entry.lastUpdate),
	}, true
}

// Set stores a scan result for dir
func (c *DirectoryCache) Set(dir string, res *ScanResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[dir] = &cacheEntry{
		files:      res.Files,
		truncated:  res.Truncated,
		lastUpdate: time.Now(),
	}
}

// TryStartScan marks dir as being scanned. It returns false when another
// scan of dir is already running.
func (c *DirectoryCache) TryStartScan(dir string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[dir]
	if !ok {
		c.entries[dir] = &cacheEntry{scanning: true}
		return true
	}
	if entry.scanning {
		return false
	}
	entry.scanning = true
	return true
}

// FinishScan clears the scanning mark set by TryStartScan
func (c *DirectoryCache) FinishScan(dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[dir]; ok {
		entry.scanning = false
	}
}

// Clear removes expired entries
func (c *DirectoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for dir, entry := range c.entries {
		if !entry.scanning && now.Sub(entry.lastUpdate) > c.ttl {
			delete(c.entries, dir)
		}
	}
}

// Len is the number of cached directories
func (c *DirectoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// ScanResult is one directory scan
type ScanResult struct {
	Files        []FileInfo
	FromCache    bool
	CacheAge     time.Duration
	ScanTime     time.Duration
	FilesScanned int
	Truncated    bool
}

// LazyDirectoryScanner lists drawings with depth, count and time limits so
// server info stays fast on large shares
type LazyDirectoryScanner struct {
	maxDepth  int
	fileLimit int
	timeLimit time.Duration
}

// NewLazyDirectoryScanner creates a scanner; zero disables a limit
func NewLazyDirectoryScanner(maxDepth, fileLimit int, timeLimit time.Duration) *LazyDirectoryScanner {
	return &LazyDirectoryScanner{
		maxDepth:  maxDepth,
		fileLimit: fileLimit,
		timeLimit: timeLimit,
	}
}

type scanState struct {
	start   time.Time
	visited map[string]bool
	result  *ScanResult
}

// ScanDirectory walks root until a limit is hit or ctx is done
func (s *LazyDirectoryScanner) ScanDirectory(ctx context.Context, root string) (*ScanResult, error) {
	st := &scanState{
		start:   time.Now(),
		visited: make(map[string]bool),
		result:  &ScanResult{Files: []FileInfo{}},
	}
	err := s.scan(ctx, root, 0, st)
	st.result.ScanTime = time.Since(st.start)
	return st.result, err
}

func (s *LazyDirectoryScanner) scan(ctx context.Context, dir string, depth int, st *scanState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.maxDepth > 0 && depth >= s.maxDepth {
		return nil
	}
	if s.limitReached(st) {
		st.result.Truncated = true
		return nil
	}

	realDir, err := filepath.EvalSymlinks(dir)
	if err != nil || st.visited[realDir] {
		return nil
	}
	st.visited[realDir] = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		st.result.FilesScanned++

		if strings.HasPrefix(entry.Name(), ".") || entry.Type()&os.ModeSymlink != 0 {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if err := s.scan(ctx, path, depth+1, st); err != nil {
				return err
			}
			if st.result.Truncated {
				return nil
			}
			continue
		}

		kind, err := KindOf(entry.Name())
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		st.result.Files = append(st.result.Files, FileInfo{
			Path:         path,
			Name:         entry.Name(),
			Kind:         kind,
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})

		if s.limitReached(st) {
			st.result.Truncated = true
			return nil
		}
	}
	return nil
}

func (s *LazyDirectoryScanner) limitReached(st *scanState) bool {
	if s.fileLimit > 0 && len(st.result.Files) >= s.fileLimit {
		return true
	}
	return s.timeLimit > 0 && time.Since(st.start) > s.timeLimit
}

// DrawingServerInfo answers server info requests, caching the directory listing
type DrawingServerInfo struct {
	cache   *DirectoryCache
	scanner *LazyDirectoryScanner
	service *Service
}

// NewDrawingServerInfo creates a server info handler for service
func NewDrawingServerInfo(service *Service) *DrawingServerInfo {
	return &DrawingServerInfo{
		cache:   NewDirectoryCache(5 * time.Minute),
		scanner: NewLazyDirectoryScanner(5, 100, 3*time.Second),
		service: service,
	}
}

// GetServerInfo reports capabilities, field configuration and the drawings
// found in the configured directory
func (p *DrawingServerInfo) GetServerInfo(ctx context.Context, serverName, version string) (*DrawingServerInfoResult, error) {
	dir := p.service.pathValidator.Root()

	scan, ok := p.cache.Get(dir)
	if !ok {
		scan = &ScanResult{Files: []FileInfo{}}
		// A concurrent caller already scanning gets an empty listing instead of waiting
		if p.cache.TryStartScan(dir) {
			func() {
				defer p.cache.FinishScan(dir)

				scanCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
				defer cancel()

				res, err := p.scanner.ScanDirectory(scanCtx, dir)
				if err != nil && ctx.Err() != nil {
					return
				}
				if res != nil {
					scan = res
					p.cache.Set(dir, res)
				}
			}()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &DrawingServerInfoResult{
		ServerName:        serverName,
		Version:           version,
		DefaultDirectory:  dir,
		MaxFileSize:       p.service.maxFileSize,
		OCREnabled:        p.service.ocrEnabled,
		AvailableTools:    p.availableTools(),
		Fields:            p.service.Specs(),
		DirectoryContents: scan.Files,
		UsageGuidance:     p.usageGuidance(scan.Truncated),
		SupportedFormats:  SupportedExtensions(),
	}, nil
}

// ClearCache drops expired directory listings
func (p *DrawingServerInfo) ClearCache() {
	p.cache.Clear()
}

func (p *DrawingServerInfo) availableTools() []ToolInfo {
	const pathParam = "path (required): drawing file, absolute or relative to the configured directory"
	return []ToolInfo{
		{
			Name:        descriptions.ToolExtractFields,
			Description: descriptions.GetToolDescription(descriptions.ToolExtractFields),
			Usage:       "Use this tool to read job number, drawing number, revision, project name and drawing title from a drawing.",
			Parameters:  pathParam + ", fields (optional): comma separated field names, all fields if empty",
		},
		{
			Name:        descriptions.ToolExtractTokens,
			Description: descriptions.GetToolDescription(descriptions.ToolExtractTokens),
			Usage:       "Use this tool to inspect the positioned text a drawing yields, e.g. when a field is not found.",
			Parameters:  pathParam + ", page (optional): page number, query (optional): case-insensitive text filter",
		},
		{
			Name:        descriptions.ToolValidateFile,
			Description: descriptions.GetToolDescription(descriptions.ToolValidateFile),
			Usage:       "Use this tool to check a drawing can be loaded before extracting from it.",
			Parameters:  pathParam,
		},
		{
			Name:        descriptions.ToolSearchDirectory,
			Description: descriptions.GetToolDescription(descriptions.ToolSearchDirectory),
			Usage:       "Use this tool to find drawings by file name in the configured directory or a subdirectory.",
			Parameters: "directory (optional): directory to search, the configured directory if empty, " +
				"query (optional): fuzzy file name query",
		},
		{
			Name:        descriptions.ToolServerInfo,
			Description: descriptions.GetToolDescription(descriptions.ToolServerInfo),
			Usage:       "Use this tool to get server capabilities and field configuration.",
			Parameters:  "No parameters required",
		},
	}
}

func (p *DrawingServerInfo) usageGuidance(truncated bool) string {
	maxFileSizeMB := p.service.maxFileSize / (1024 * 1024)

	ocr := "OCR is disabled: scanned pages and raster drawings yield no tokens."
	if p.service.ocrEnabled {
		ocr = "OCR is enabled: pages with little native text and raster drawings are recognized with Tesseract."
	}
	listing := ""
	if truncated {
		listing = "\n- The directory listing above was truncated; use drawing_search_directory for a complete search"
	}

	return fmt.Sprintf(`Drawing Fields MCP Server Usage Guide:

1. FIND DRAWINGS:
   - Use 'drawing_search_directory' to list PDF, image and JSON token files

2. VALIDATE:
   - Use 'drawing_validate_file' to check a file loads before extraction

3. EXTRACT FIELDS:
   - Use 'drawing_extract_fields' for job number, drawing number, revision, project name and drawing title
   - Each field reports found=false when its label or a matching value is missing
   - Values are searched right of and below each label; the closest tokens win

4. DEBUG:
   - Use 'drawing_extract_tokens' with a query such as "rev" to see the tokens around a label
   - Coordinates are page units with the origin at the top left

IMPORTANT NOTES:
- The server can handle files up to %dMB
- %s%s`, maxFileSizeMB, ocr, listing)
}

// 包 catalog：按 年 → 月 → 分辨率 三级索引的分区目录，负责批量构建、主分辨率预加载与内存压力下的驱逐。
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"qtree-api/internal/logger"
	"qtree-api/internal/metrics"
	"qtree-api/internal/qtree"
)

// ErrNotFound：目录中没有该分区
var ErrNotFound = errors.New("partition not found")

// 文档注释：目录构建参数
// 约束：PrimaryRes 对应分区在 Setup 时整体加载，且 Clear 永不驱逐；Workers <= 0 时按 1 处理。
type Options struct {
	BaseDir     string
	PrimaryRes  string
	Resolutions []string
	Months      []YearMonth
	Workers     int
	Preload     bool
}

// DefaultOptions：1997-09..1997-12、1998..2014 全年、2015-01，分辨率 10/4/2/1，主分辨率 "1"
func DefaultOptions() Options {
	return Options{
		BaseDir:     "../db/qTrees",
		PrimaryRes:  "1",
		Resolutions: []string{"10", "4", "2", "1"},
		Months: MonthRange(1998, 2014,
			YearMonth{"1997", "09"}, YearMonth{"1997", "10"}, YearMonth{"1997", "11"}, YearMonth{"1997", "12"},
			YearMonth{"2015", "01"},
		),
		Workers: 8,
		Preload: true,
	}
}

// 文档注释：分区目录
// 背景：进程启动时显式构建并以引用注入请求处理层。
// 约束：三级映射由 mu 保护，仅 Store 写入；树形只读，查询无需持有目录锁。
type Catalog struct {
	opts Options

	mu    sync.RWMutex
	years map[string]map[string]map[string]*Partition

	closed atomic.Bool
}

func New(opts Options) *Catalog {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Catalog{opts: opts, years: make(map[string]map[string]map[string]*Partition)}
}

func (c *Catalog) PrimaryRes() string    { return c.opts.PrimaryRes }
func (c *Catalog) Resolutions() []string { return c.opts.Resolutions }

// EnsureEntry：幂等创建 year/month 两级映射
func (c *Catalog) EnsureEntry(year, month string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureLocked(year, month)
}

func (c *Catalog) ensureLocked(year, month string) map[string]*Partition {
	months, ok := c.years[year]
	if !ok {
		months = make(map[string]map[string]*Partition)
		c.years[year] = months
	}
	res, ok := months[month]
	if !ok {
		res = make(map[string]*Partition)
		months[month] = res
	}
	return res
}

// Store：登记（或替换）一个分区树
func (c *Catalog) Store(year, month, res string, root qtree.Node) *Partition {
	k := Key{Year: year, Month: month, Res: res}
	p := &Partition{Key: k, Dir: k.Dir(c.opts.BaseDir), Root: root, BuiltAt: time.Now()}
	c.mu.Lock()
	c.ensureLocked(year, month)[res] = p
	c.mu.Unlock()
	return p
}

func (c *Catalog) HasEntry(year, month, res string) bool {
	return c.Partition(year, month, res) != nil
}

// Partition：未命中返回 nil
func (c *Catalog) Partition(year, month, res string) *Partition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.years[year][month][res]
}

// GetQt：分区树根；未命中返回 nil
func (c *Catalog) GetQt(year, month, res string) qtree.Node {
	if p := c.Partition(year, month, res); p != nil {
		return p.Root
	}
	return nil
}

// partitions：按 (year, month, res) 排序的快照
func (c *Catalog) partitions() []*Partition {
	c.mu.RLock()
	var out []*Partition
	for _, months := range c.years {
		for _, ress := range months {
			for _, p := range ress {
				out = append(out, p)
			}
		}
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Key.less(out[j].Key) })
	return out
}

// AllEntries：已知分区列表，按 (year, month, res) 排序
func (c *Catalog) AllEntries() []Entry {
	ps := c.partitions()
	out := make([]Entry, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Key)
	}
	return out
}

// 文档注释：读取分区清单、构建树形并登记
// 约束：只构建树形不读点文件；SanityCheck 失败仅记日志。清单错误时分区不登记，返回 *qtree.ManifestError。
func (c *Catalog) GetEntry(ctx context.Context, year, month, res string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k := Key{Year: year, Month: month, Res: res}
	dir := k.Dir(c.opts.BaseDir)
	root, err := qtree.BuildFromDir(dir)
	if err != nil {
		metrics.PartitionBuildsTotal.WithLabelValues("error").Inc()
		logger.L().Warn("partition_build_error", "partition", k.String(), "err", err)
		return err
	}
	if !root.SanityCheck() {
		logger.L().Warn("partition_shape_error", "partition", k.String())
	}
	c.Store(year, month, res, root)
	metrics.PartitionBuildsTotal.WithLabelValues("ok").Inc()
	logger.L().Debug("partition_built", "partition", k.String(), "leaves", len(qtree.Leaves(root)))
	return nil
}

// GetMonth：按配置的分辨率逐个构建；单个失败不中断，返回合并错误
func (c *Catalog) GetMonth(ctx context.Context, year, month string) error {
	var errs []error
	for _, res := range c.opts.Resolutions {
		if err := c.GetEntry(ctx, year, month, res); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// GetYear：01..12 逐月构建
func (c *Catalog) GetYear(ctx context.Context, year string) error {
	var errs []error
	for _, m := range Months {
		if err := c.GetMonth(ctx, year, m); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SetupSummary：Setup 结果统计
type SetupSummary struct {
	Built          int           `json:"built"`
	Failed         int           `json:"failed"`
	Preloaded      int           `json:"preloaded"`
	PreloadFailed  int           `json:"preload_failed"`
	Elapsed        time.Duration `json:"-"`
	ElapsedSeconds float64       `json:"elapsed_s"`
}

// 文档注释：进程启动时的批量构建
// 背景：先以有界并发构建全部 (月份 × 分辨率) 分区树形，再并发加载主分辨率分区的全部叶子。
// 约束：单个分区构建或加载失败只计数不中断；仅 ctx 取消时返回错误。
func (c *Catalog) Setup(ctx context.Context) (SetupSummary, error) {
	start := time.Now()
	var sum SetupSummary
	var built, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)
	for _, ym := range c.opts.Months {
		for _, res := range c.opts.Resolutions {
			g.Go(func() error {
				if err := c.GetEntry(gctx, ym.Year, ym.Month, res); err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					failed.Add(1)
					return nil
				}
				built.Add(1)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return sum, err
	}
	sum.Built, sum.Failed = int(built.Load()), int(failed.Load())

	if c.opts.Preload {
		var ok, bad atomic.Int64
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.opts.Workers)
		for _, p := range c.partitions() {
			if !p.Primary(c.opts.PrimaryRes) {
				continue
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := p.Root.Load(); err != nil {
					bad.Add(1)
					logger.L().Warn("partition_preload_error", "partition", p.Key.String(), "err", err)
					return nil
				}
				ok.Add(1)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return sum, err
		}
		sum.Preloaded, sum.PreloadFailed = int(ok.Load()), int(bad.Load())
	}

	sum.Elapsed = time.Since(start)
	sum.ElapsedSeconds = sum.Elapsed.Seconds()
	c.Stats()
	logger.L().Info("catalog_setup_done", "built", sum.Built, "failed", sum.Failed, "preloaded", sum.Preloaded, "preload_failed", sum.PreloadFailed, "elapsed_ms", sum.Elapsed.Milliseconds())
	return sum, nil
}

// Shutdown：清空全部分区（含主分辨率）；之后的查询仍可透明重载
func (c *Catalog) Shutdown() {
	c.closed.Store(true)
	ps := c.partitions()
	for _, p := range ps {
		p.Root.Clear()
	}
	metrics.LoadedLeavesGauge.Set(0)
	logger.L().Info("catalog_shutdown", "partitions", len(ps))
}

// Load：强制（重新）加载一个分区
func (c *Catalog) Load(year, month, res string) error {
	p := c.Partition(year, month, res)
	if p == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, Key{Year: year, Month: month, Res: res})
	}
	return p.Root.Load()
}

// 文档注释：目录级查询结果
// 约束：未命中时 Found=false，Message 说明缺失分区，Entries 列出全部已知分区。Points 恒非 nil，未命中或无匹配点时序列化为 []。
type QueryResult struct {
	Found     bool          `json:"found"`
	Message   string        `json:"message,omitempty"`
	Entries   []Entry       `json:"entries,omitempty"`
	Points    []qtree.Point `json:"points"`
	Count     int           `json:"count"`
	Elapsed   time.Duration `json:"-"`
	ElapsedMs float64       `json:"elapsed_ms"`
}

func (c *Catalog) FindPoints(ctx context.Context, q qtree.BBox, year, month, res string) (QueryResult, error) {
	return c.FindPointsMulti(ctx, []qtree.BBox{q}, year, month, res)
}

// FindPointsMulti：依次查询多个包围盒并拼接结果；框之间检查 ctx
func (c *Catalog) FindPointsMulti(ctx context.Context, qs []qtree.BBox, year, month, res string) (QueryResult, error) {
	if c.closed.Load() {
		logger.L().Warn("catalog_query_after_shutdown", "year", year, "month", month, "res", res)
	}
	root := c.GetQt(year, month, res)
	if root == nil {
		metrics.QueriesTotal.WithLabelValues("miss").Inc()
		return QueryResult{
			Message: fmt.Sprintf("no entries for %s/%s at resolution %s", month, year, res),
			Entries: c.AllEntries(),
			Points:  []qtree.Point{},
		}, nil
	}
	start := time.Now()
	pts := []qtree.Point{}
	for _, q := range qs {
		if err := ctx.Err(); err != nil {
			return QueryResult{}, err
		}
		pts = append(pts, root.FindPoints(q)...)
	}
	el := time.Since(start)
	ms := float64(el.Microseconds()) / 1000
	metrics.QueriesTotal.WithLabelValues("hit").Inc()
	metrics.QueryDurationMs.Observe(ms)
	metrics.QueryPointsTotal.Add(float64(len(pts)))
	return QueryResult{Found: true, Points: pts, Count: len(pts), Elapsed: el, ElapsedMs: ms}, nil
}

// 文档注释：驱逐全部非主分辨率分区的已加载点
// 约束：主分辨率分区永不清空；树形保留，下次查询透明重载。返回被清空的分区数。
func (c *Catalog) Clear() int {
	n := 0
	for _, p := range c.partitions() {
		if p.Primary(c.opts.PrimaryRes) {
			continue
		}
		p.Root.Clear()
		n++
	}
	metrics.EvictionsTotal.Inc()
	logger.L().Info("catalog_evict", "partitions", n)
	return n
}

// Stats：目录内存占用概况
type Stats struct {
	Partitions   int    `json:"partitions"`
	Leaves       int    `json:"leaves"`
	LoadedLeaves int    `json:"loaded_leaves"`
	LoadedPoints int    `json:"loaded_points"`
	PrimaryRes   string `json:"primary_res"`
}

// Stats：遍历全部分区统计，并同步刷新分区数与已加载叶子数指标
func (c *Catalog) Stats() Stats {
	s := Stats{PrimaryRes: c.opts.PrimaryRes}
	for _, p := range c.partitions() {
		s.Partitions++
		for _, l := range qtree.Leaves(p.Root) {
			s.Leaves++
			if l.Loaded() {
				s.LoadedLeaves++
			}
			s.LoadedPoints += l.NumPoints()
		}
	}
	metrics.PartitionsGauge.Set(float64(s.Partitions))
	metrics.LoadedLeavesGauge.Set(float64(s.LoadedLeaves))
	return s
}

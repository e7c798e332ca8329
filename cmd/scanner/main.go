// Copyright 2024-2025 vecdb
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/vecdb/lanescan/pkg/chunk"
	"github.com/vecdb/lanescan/pkg/common"
	"github.com/vecdb/lanescan/pkg/compute"
	"github.com/vecdb/lanescan/pkg/storage"
	"github.com/vecdb/lanescan/pkg/util"
)

func init() {
	cobra.OnInitialize(loadConfig)
	initScanCmd()
}

var scannerCfg = &util.Config{}

var info = "scanner"
var RootCmd = &cobra.Command{
	Use:          "scanner",
	Short:        info,
	Long:         info,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("use scanner --help or -h")
	},
}

var scanInfo = "scan a data file with a predicate"
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: scanInfo,
	Long:  scanInfo,
	RunE: func(cmd *cobra.Command, args []string) error {
		initScanCfg()
		util.SetupLogger(&scannerCfg.Log)
		return runScan()
	},
}

var (
	tableName  string
	columnSpec string
	filterExpr string
)

func initScanCfg() {
	scannerCfg.Data.Path = viper.GetString("data.path")
	scannerCfg.Data.Format = viper.GetString("data.format")
	scannerCfg.Scan.FilterOrder = viper.GetString("scan.filterOrder")
	scannerCfg.Scan.Workers = viper.GetInt("scan.workers")
	scannerCfg.Scan.UseZoneMaps = viper.GetBool("scan.useZoneMaps")
	scannerCfg.Debug.PrintResult = viper.GetBool("debug.printResult")
	scannerCfg.Debug.PrintPlan = viper.GetBool("debug.printPlan")
}

func initScanCmd() {
	RootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVar(&scannerCfg.Data.Path, "data_path", "", "data file path")
	scanCmd.Flags().StringVar(&scannerCfg.Data.Format, "data_format", "csv", "data format. csv, parquet")
	scanCmd.Flags().StringVar(&scannerCfg.Scan.FilterOrder, "filter_order", "predicate-first", "predicate-first, visibility-first")
	scanCmd.Flags().IntVar(&scannerCfg.Scan.Workers, "workers", 1, "scan worker count")
	scanCmd.Flags().BoolVar(&scannerCfg.Scan.UseZoneMaps, "zonemaps", true, "skip chunks by zone maps")
	scanCmd.Flags().StringVar(&tableName, "table", "t", "table name")
	scanCmd.Flags().StringVar(&columnSpec, "columns", "", "column spec. name:type[:null],...")
	scanCmd.Flags().StringVar(&filterExpr, "filter", "", "predicate. col op literal [and ...]")

	viper.BindPFlag("data.path", scanCmd.Flags().Lookup("data_path"))
	viper.BindPFlag("data.format", scanCmd.Flags().Lookup("data_format"))
	viper.BindPFlag("scan.filterOrder", scanCmd.Flags().Lookup("filter_order"))
	viper.BindPFlag("scan.workers", scanCmd.Flags().Lookup("workers"))
	viper.BindPFlag("scan.useZoneMaps", scanCmd.Flags().Lookup("zonemaps"))
}

var defCfgFilePaths = []string{".", "etc"}
var cfgFileName = "scanner.toml"

func loadConfig() {
	for _, dirPath := range defCfgFilePaths {
		fpath := filepath.Join(dirPath, cfgFileName)
		if util.FileIsValid(fpath) {
			_, err := toml.DecodeFile(fpath, scannerCfg)
			if err != nil {
				util.Error("load config file failed",
					zap.String("fpath", fpath),
					zap.Error(err))
				continue
			}
			viper.SetConfigFile(fpath)
			if err = viper.ReadInConfig(); err != nil {
				util.Error("viper load config file failed",
					zap.String("fpath", fpath),
					zap.Error(err))
			}
			break
		}
	}
}

func parseColumns(spec string) ([]*storage.ColumnDefinition, error) {
	if spec == "" {
		return nil, fmt.Errorf("empty column spec")
	}
	var defs []*storage.ColumnDefinition
	for _, item := range strings.Split(spec, ",") {
		parts := strings.Split(strings.TrimSpace(item), ":")
		if len(parts) < 2 {
			return nil, fmt.Errorf("bad column spec %s", item)
		}
		def := &storage.ColumnDefinition{Name: parts[0]}
		switch parts[1] {
		case "int":
			def.Typ = common.IntegerType()
		case "bigint":
			def.Typ = common.BigintType()
		case "float":
			def.Typ = common.FloatType()
		case "double":
			def.Typ = common.DoubleType()
		case "bool":
			def.Typ = common.BooleanType()
		case "varchar":
			def.Typ = common.VarcharType()
		default:
			return nil, fmt.Errorf("bad column type %s", parts[1])
		}
		if len(parts) > 2 && parts[2] == "null" {
			def.Nullable = true
		}
		defs = append(defs, def)
	}
	return defs, nil
}

var cmpOps = map[string]compute.ET_SubTyp{
	"=":    compute.ET_Equal,
	"==":   compute.ET_Equal,
	"!=":   compute.ET_NotEqual,
	"<>":   compute.ET_NotEqual,
	"<":    compute.ET_Less,
	"<=":   compute.ET_LessEqual,
	">":    compute.ET_Greater,
	">=":   compute.ET_GreaterEqual,
	"like": compute.ET_Like,
}

func parseFilter(table *storage.DataTable, s string) (*compute.Expr, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var clauses []*compute.Expr
	for _, part := range strings.Split(s, " and ") {
		fields := strings.Fields(part)
		if len(fields) != 3 {
			return nil, fmt.Errorf("bad predicate %s", part)
		}
		colIdx, err := table.ColumnIndex(fields[0])
		if err != nil {
			return nil, err
		}
		op, has := cmpOps[strings.ToLower(fields[1])]
		if !has {
			return nil, fmt.Errorf("bad operator %s", fields[1])
		}
		def := table.ColumnDefs()[colIdx]
		cval, err := parseLiteral(def.Typ, fields[2])
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, compute.NewComparison(op,
			compute.NewColumnRef(colIdx, def.Name, def.Typ, def.Nullable),
			compute.NewConst(cval)))
	}
	if len(clauses) == 1 {
		return clauses[0], nil
	}
	return compute.NewConjunction(compute.ET_And, clauses...), nil
}

func parseLiteral(typ common.LType, s string) (*chunk.Value, error) {
	switch typ.Id {
	case common.LTID_INTEGER:
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil, err
		}
		return chunk.IntegerValue(int32(v)), nil
	case common.LTID_BIGINT:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, err
		}
		return chunk.BigintValue(v), nil
	case common.LTID_FLOAT:
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return nil, err
		}
		return chunk.FloatValue(float32(v)), nil
	case common.LTID_DOUBLE:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		return chunk.DoubleValue(v), nil
	case common.LTID_BOOLEAN:
		v, err := strconv.ParseBool(s)
		if err != nil {
			return nil, err
		}
		return chunk.BooleanValue(v), nil
	case common.LTID_VARCHAR:
		return chunk.VarcharValue(strings.Trim(s, "'")), nil
	default:
		return nil, fmt.Errorf("bad literal type %s", typ.String())
	}
}

func runScan() error {
	colDefs, err := parseColumns(columnSpec)
	if err != nil {
		return err
	}

	catalog := storage.NewCatalog()
	table, err := catalog.CreateTable("public", tableName, colDefs)
	if err != nil {
		return err
	}

	txnMgr := storage.NewTxnMgr()
	loadTxn, err := txnMgr.NewTxn("load")
	if err != nil {
		return err
	}
	var rows storage.IdxType
	switch scannerCfg.Data.Format {
	case "csv":
		rows, err = storage.LoadCsv(loadTxn, table, scannerCfg.Data.Path, ',')
	case "parquet":
		rows, err = storage.LoadParquet(loadTxn, table, scannerCfg.Data.Path)
	default:
		err = fmt.Errorf("bad data format %s", scannerCfg.Data.Format)
	}
	if err != nil {
		txnMgr.Rollback(loadTxn)
		return err
	}
	if err = txnMgr.Commit(loadTxn); err != nil {
		return err
	}
	util.Info("data loaded",
		zap.String("path", scannerCfg.Data.Path),
		zap.Uint64("rows", uint64(rows)))

	pred, err := parseFilter(table, filterExpr)
	if err != nil {
		return err
	}
	order := compute.PredicateFirst
	if scannerCfg.Scan.FilterOrder == "visibility-first" {
		order = compute.VisibilityFirst
	}
	cols := make([]int, 0, len(colDefs))
	for i := range colDefs {
		cols = append(cols, i)
	}
	plan := &compute.ScanPlan{
		Table:     table.Oid(),
		Columns:   cols,
		Predicate: pred,
		Order:     order,
	}

	scanTxn, err := txnMgr.NewTxn("scan")
	if err != nil {
		return err
	}
	defer txnMgr.Rollback(scanTxn)

	types := table.ColumnTypes()
	workers := scannerCfg.Scan.Workers
	if workers <= 1 {
		sink := compute.NewCollectorSink(types, cols)
		tr, err := newTranslator(plan, catalog, table, compute.NewPipeline(sink))
		if err != nil {
			return err
		}
		if err = tr.Produce(scanTxn); err != nil {
			return err
		}
		report(tr, []*compute.CollectorSink{sink})
		return nil
	}

	var mu sync.Mutex
	var sinks []*compute.CollectorSink
	factory := func() compute.OperatorSink {
		sink := compute.NewCollectorSink(types, cols)
		mu.Lock()
		sinks = append(sinks, sink)
		mu.Unlock()
		return sink
	}
	tr, err := newTranslator(plan, catalog, table, compute.NewPipeline(factory()))
	if err != nil {
		return err
	}
	if err = tr.ParallelProduce(scanTxn, workers, factory); err != nil {
		return err
	}
	report(tr, sinks)
	return nil
}

func newTranslator(
	plan *compute.ScanPlan,
	catalog *storage.Catalog,
	table *storage.DataTable,
	pipeline *compute.Pipeline) (*compute.TableScanTranslator, error) {
	tr, err := compute.NewTableScanTranslator(plan, catalog, pipeline)
	if err != nil {
		return nil, err
	}
	if scannerCfg.Scan.UseZoneMaps {
		tr.WithZoneMaps(table.ZoneMaps())
	}
	if scannerCfg.Debug.PrintPlan {
		fmt.Println(tr.Explain())
	}
	return tr, nil
}

func report(tr *compute.TableScanTranslator, sinks []*compute.CollectorSink) {
	total := 0
	for _, sink := range sinks {
		total += sink.RowCount()
		if scannerCfg.Debug.PrintResult {
			for _, out := range sink.Chunks() {
				out.Print("row")
			}
		}
	}
	fmt.Printf("%d rows\n", total)
}

func main() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

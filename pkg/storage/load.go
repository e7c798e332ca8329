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

package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	pqLocal "github.com/xitongsys/parquet-go-source/local"
	pqReader "github.com/xitongsys/parquet-go/reader"

	"github.com/vecdb/lanescan/pkg/chunk"
	"github.com/vecdb/lanescan/pkg/common"
)

// LoadCsv appends the rows of a csv file to the table through txn.
// Returns the number of rows loaded.
func LoadCsv(txn *Txn, table *DataTable, path string, delimiter rune) (IdxType, error) {
	dataFile, err := os.OpenFile(path, os.O_RDONLY, 0755)
	if err != nil {
		return 0, err
	}
	defer dataFile.Close()

	reader := csv.NewReader(dataFile)
	if delimiter != 0 {
		reader.Comma = delimiter
	}

	types := table.ColumnTypes()
	data := &chunk.Chunk{}
	data.Init(types, STANDARD_VECTOR_SIZE)

	loaded := IdxType(0)
	for {
		rowCnt := 0
		for i := 0; i < STANDARD_VECTOR_SIZE; i++ {
			line, err := reader.Read()
			if err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return loaded, err
			}
			if len(line) < len(types) {
				return loaded, errors.New("no enough fields in the line")
			}
			for j := range types {
				val, err := fieldToValue(line[j], types[j])
				if err != nil {
					return loaded, err
				}
				data.Data[j].SetValue(i, val)
			}
			rowCnt++
		}
		if rowCnt == 0 {
			break
		}
		data.SetCard(rowCnt)
		err = table.Append(txn, data)
		if err != nil {
			return loaded, err
		}
		loaded += IdxType(rowCnt)
		if rowCnt < STANDARD_VECTOR_SIZE {
			break
		}
		data.Init(types, STANDARD_VECTOR_SIZE)
	}
	return loaded, nil
}

// LoadParquet appends the rows of a parquet file to the table through txn.
func LoadParquet(txn *Txn, table *DataTable, path string) (IdxType, error) {
	pqFile, err := pqLocal.NewLocalFileReader(path)
	if err != nil {
		return 0, err
	}
	defer pqFile.Close()

	rd, err := pqReader.NewParquetColumnReader(pqFile, 1)
	if err != nil {
		return 0, err
	}
	defer rd.ReadStop()

	types := table.ColumnTypes()
	loaded := IdxType(0)
	for {
		data := &chunk.Chunk{}
		data.Init(types, STANDARD_VECTOR_SIZE)
		rowCnt := -1
		for j := range types {
			values, _, _, err := rd.ReadColumnByIndex(int64(j), int64(STANDARD_VECTOR_SIZE))
			if err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return loaded, err
			}
			if rowCnt < 0 {
				rowCnt = len(values)
			} else if len(values) != rowCnt {
				return loaded, fmt.Errorf("column %d has different count of values %d with previous columns %d",
					j, len(values), rowCnt)
			}
			vec := data.Data[j]
			for i := 0; i < len(values); i++ {
				val, err := parquetColToValue(values[i], vec.Typ())
				if err != nil {
					return loaded, err
				}
				vec.SetValue(i, val)
			}
		}
		if rowCnt <= 0 {
			break
		}
		data.SetCard(rowCnt)
		err = table.Append(txn, data)
		if err != nil {
			return loaded, err
		}
		loaded += IdxType(rowCnt)
		if rowCnt < STANDARD_VECTOR_SIZE {
			break
		}
	}
	return loaded, nil
}

func fieldToValue(field string, lTyp common.LType) (*chunk.Value, error) {
	var err error
	val := &chunk.Value{
		Typ: lTyp,
	}
	switch lTyp.Id {
	case common.LTID_INTEGER, common.LTID_BIGINT:
		val.I64, err = strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, err
		}
	case common.LTID_FLOAT, common.LTID_DOUBLE:
		val.F64, err = strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, err
		}
	case common.LTID_BOOLEAN:
		val.Bool, err = strconv.ParseBool(field)
		if err != nil {
			return nil, err
		}
	case common.LTID_VARCHAR:
		val.Str = field
	case common.LTID_DECIMAL:
		val.Dec, err = common.ParseDecimal(field)
		if err != nil {
			return nil, err
		}
	default:
		panic("usp")
	}
	return val, nil
}

func parquetColToValue(field any, lTyp common.LType) (*chunk.Value, error) {
	val := &chunk.Value{
		Typ: lTyp,
	}
	switch lTyp.Id {
	case common.LTID_INTEGER, common.LTID_BIGINT:
		switch fVal := field.(type) {
		case int32:
			val.I64 = int64(fVal)
		case int64:
			val.I64 = fVal
		default:
			panic("usp")
		}
	case common.LTID_FLOAT:
		switch fVal := field.(type) {
		case float32:
			val.F64 = float64(fVal)
		case float64:
			val.F64 = fVal
		default:
			panic("usp")
		}
	case common.LTID_DOUBLE:
		switch fVal := field.(type) {
		case float32:
			val.F64 = float64(fVal)
		case float64:
			val.F64 = fVal
		default:
			panic("usp")
		}
	case common.LTID_BOOLEAN:
		if _, ok := field.(bool); !ok {
			panic("usp")
		}
		val.Bool = field.(bool)
	case common.LTID_VARCHAR:
		if _, ok := field.(string); !ok {
			panic("usp")
		}
		val.Str = field.(string)
	case common.LTID_DECIMAL:
		var err error
		switch fVal := field.(type) {
		case int32:
			val.Dec, err = common.DecimalFromInt64(int64(fVal), lTyp.Scale)
		case int64:
			val.Dec, err = common.DecimalFromInt64(fVal, lTyp.Scale)
		default:
			panic("usp")
		}
		if err != nil {
			return nil, err
		}
	default:
		panic("usp")
	}
	return val, nil
}

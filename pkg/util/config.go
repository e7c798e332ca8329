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

package util

type DataSource struct {
	Path   string `toml:"path"`
	Format string `toml:"format"`
}

type ScanOptions struct {
	FilterOrder string `toml:"filterOrder"`
	Workers     int    `toml:"workers"`
	UseZoneMaps bool   `toml:"useZoneMaps"`
}

type LogOptions struct {
	Level      string `toml:"level"`
	Filename   string `toml:"filename"`
	MaxSize    int    `toml:"maxSize"`
	MaxDays    int    `toml:"maxDays"`
	MaxBackups int    `toml:"maxBackups"`
}

type DebugOptions struct {
	PrintResult bool `toml:"printResult"`
	PrintPlan   bool `toml:"printPlan"`
}

type Config struct {
	Data  DataSource   `toml:"data"`
	Scan  ScanOptions  `toml:"scan"`
	Log   LogOptions   `toml:"log"`
	Debug DebugOptions `toml:"debug"`
}

/*
 * Copyright (C) 2025 Google LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License"); you may not
 * use this file except in compliance with the License. You may obtain a copy of
 * the License at
 *
 *   http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
 * WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
 * License for the specific language governing permissions and limitations under
 * the License.
 */

package admin

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/vincintz/cassandra-gui/utilities"
)

var readFile = os.ReadFile

// UserConfig holds the configuration data read from the YAML file.
type UserConfig struct {
	Connection   ConnectionConfig        `yaml:"connection"`
	LoggerConfig *utilities.LoggerConfig `yaml:"loggerConfig"`
}

// ConnectionConfig names the seed node and its ports.
type ConnectionConfig struct {
	Host           string `yaml:"host"`
	RPCPort        int    `yaml:"rpcPort"`
	ManagementPort int    `yaml:"managementPort"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// LoadConfig reads and parses the YAML configuration file. A missing file is
// not an error; defaults apply.
func LoadConfig(filename string) (*UserConfig, error) {
	data, err := readFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return &UserConfig{}, nil
		}
		return nil, fmt.Errorf("error reading file %s: %w", filename, err)
	}

	var config UserConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing YAML in %s: %w", filename, err)
	}
	return &config, nil
}

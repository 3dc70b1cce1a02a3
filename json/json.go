package json

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const DefaultIndent = "  "

type IJsonClient interface {
	Export(value any, fileName string) (string, error)
}

type JsonClient struct {
	Fs                afero.Fs
	WorkingFolderPath string
	Indent            string
	Logger            *logrus.Logger
}

func NewJsonClient(fs afero.Fs, workingFolderPath string, logger *logrus.Logger) *JsonClient {
	return &JsonClient{
		Fs:                fs,
		WorkingFolderPath: workingFolderPath,
		Indent:            DefaultIndent,
		Logger:            logger,
	}
}

// Export writes value as indented JSON, leaving HTML characters unescaped,
// and returns the path of the file.
func (jsonClient *JsonClient) Export(value any, fileName string) (string, error) {
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", jsonClient.Indent)
	if err := encoder.Encode(value); err != nil {
		return "", fmt.Errorf("error marshaling %s: %w", fileName, err)
	}
	jsonData := bytes.TrimRight(buffer.Bytes(), "\n")

	if err := jsonClient.Fs.MkdirAll(jsonClient.WorkingFolderPath, 0755); err != nil {
		return "", fmt.Errorf("error creating folder %s: %w", jsonClient.WorkingFolderPath, err)
	}

	jsonFilePath := filepath.Join(jsonClient.WorkingFolderPath, fileName)
	if err := afero.WriteFile(jsonClient.Fs, jsonFilePath, jsonData, 0644); err != nil {
		return "", fmt.Errorf("error writing file %s: %w", jsonFilePath, err)
	}
	jsonClient.Logger.Debugf("Wrote %s", jsonFilePath)
	return jsonFilePath, nil
}

package utils

import "github.com/google/uuid"

// GenerateUUID 生成UUID字符串
func GenerateUUID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func initSecretsConfig(ctx context.Context) (*secretsmanager.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return secretsmanager.NewFromConfig(cfg), nil
}

// retrieveCredentials usa usuario/clave explícitos y si faltan los busca en Secrets Manager.
func retrieveCredentials(ctx context.Context, username, password, secretID string) (string, string, error) {
	if username != "" && password != "" {
		return username, password, nil
	}
	if secretID == "" {
		return "", "", fmt.Errorf("credenciales de base de datos ausentes: defina DB_USERNAME/DB_PASSWORD o DB_SECRET_ID")
	}

	secrets, err := initSecretsConfig(ctx)
	if err != nil {
		return "", "", fmt.Errorf("config aws: %w", err)
	}
	result, err := secrets.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(secretID),
		VersionStage: aws.String("AWSCURRENT"),
	})
	if err != nil {
		return "", "", fmt.Errorf("leer secreto %s: %w", secretID, err)
	}

	var secret Credentials
	if err := json.Unmarshal([]byte(aws.ToString(result.SecretString)), &secret); err != nil {
		return "", "", fmt.Errorf("secreto con formato inválido: %w", err)
	}
	return secret.Username, secret.Password, nil
}

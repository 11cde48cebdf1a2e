package cmd

import (
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator"
	devconfig "github.com/nusely/CFLSMS/dev/config"
	"github.com/nusely/CFLSMS/server"
	"github.com/nusely/CFLSMS/shared"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start a cflsms server",
	Long:  `The cflsms server houses the contact store, CSV import, sms dispatch & scheduling APIs`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start(serverConfig())
	},
}

var serverConfigFile string

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringVar(&serverConfigFile, "sconfig", "", "Config for server")
}

func serverConfig() *shared.ServerConfig {
	if isDevEnv && serverConfigFile == "" {
		fmt.Println(warningLabel, "running with the bundled dev config, do not use it in production")
		serverConfigFile = devConfigFilePath()
	}

	if serverConfigFile == "" {
		cobra.CheckErr(formattedError("a server config is required, pass one with --sconfig"))
	}

	config := viper.New()
	config.SetConfigFile(serverConfigFile)
	config.AutomaticEnv() // read in environment variables that match

	if err := config.ReadInConfig(); err != nil {
		log.Panic(fmt.Sprintf("error reading server config file: %v", err))
	}

	serverConfig := shared.ServerConfig{}
	if err := config.Unmarshal(&serverConfig); err != nil {
		log.Panic(fmt.Sprintf("error parsing server config file: %v", err))
	}

	if err := validator.New().Struct(serverConfig); err != nil {
		cobra.CheckErr(formattedError("invalid server config:\n%v", strings.ReplaceAll(err.Error(), "\n", "\n  ")))
	}

	return &serverConfig
}

// devConfigFilePath returns the bundled dev config, creating it from the
// default content when missing.
func devConfigFilePath() string {
	configDir, err := os.Getwd()
	if err != nil {
		log.Panic(err)
	}

	configFilePath := filepath.Join(configDir, "dev", "config", "server.yml")
	if _, err := os.Stat(configFilePath); os.IsNotExist(err) {
		cobra.CheckErr(os.MkdirAll(filepath.Dir(configFilePath), 0700))
		cobra.CheckErr(ioutil.WriteFile(configFilePath, []byte(devconfig.SERVER_YML), 0600))
	}

	return configFilePath
}

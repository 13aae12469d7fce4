package main

import "github.com/JonasPHenriksen/Ollama-Web-Chat/internal/commands"

func main() {
	commands.Execute()
}

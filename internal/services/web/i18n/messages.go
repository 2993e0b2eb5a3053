package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// freeText holds English messages produced by the flow and the gateway. They
// double as catalog keys so Text can translate them.
var freeText = map[string]string{
	"Server error.":                           "Erro no servidor.",
	"Error signing up":                        "Erro ao criar conta",
	"Account verified successfully!":          "Conta verificada com sucesso!",
	"Invalid OTP. Please try again.":          "Código inválido. Tente novamente.",
	"Login failed.":                           "Falha no login.",
	"OTP resent successfully!":                "Código reenviado com sucesso!",
	"Failed to resend OTP. Please try again.": "Falha ao reenviar o código. Tente novamente.",
	"All fields are required.":                "Todos os campos são obrigatórios.",
	"Enter the 6-digit code from your email.": "Digite o código de 6 dígitos do seu email.",
	"Too many attempts. Please wait a moment and try again.": "Muitas tentativas. Aguarde um momento e tente novamente.",
}

func known(text string) bool {
	_, ok := freeText[text]
	return ok
}

func init() {
	en := language.AmericanEnglish
	pt := language.BrazilianPortuguese

	for english, portuguese := range freeText {
		set(en, english, english)
		set(pt, english, portuguese)
	}

	entries := []struct{ key, en, pt string }{
		{"app.name", "Parley", "Parley"},
		{"title.page", "%s | Parley", "%s | Parley"},
		{"nav.lang_en", "English", "English"},
		{"nav.lang_pt_br", "Português (Brasil)", "Português (Brasil)"},

		{"signup.title", "Create account", "Criar conta"},
		{"signup.heading", "Create your account", "Crie sua conta"},
		{"signup.first_name", "First Name", "Nome"},
		{"signup.last_name", "Last Name", "Sobrenome"},
		{"signup.email", "Email", "Email"},
		{"signup.password", "Password", "Senha"},
		{"signup.submit", "Sign Up", "Cadastrar"},
		{"signup.have_account", "Already have an account?", "Já tem uma conta?"},

		{"verify.title", "Verify email", "Verificar email"},
		{"verify.heading", "Verify Your Email", "Verifique seu email"},
		{"verify.sent_to", "Enter the OTP sent to %s", "Digite o código enviado para %s"},
		{"verify.placeholder", "Enter 6-digit OTP", "Digite o código de 6 dígitos"},
		{"verify.submit", "Verify OTP", "Verificar código"},
		{"verify.resend", "Resend OTP", "Reenviar código"},
		{"verified.redirecting", "Taking you to sign in…", "Levando você para o login…"},
		{"verified.continue", "Continue to sign in", "Continuar para o login"},

		{"login.title", "Sign in", "Entrar"},
		{"login.heading", "Sign in to Parley", "Entre no Parley"},
		{"login.email", "Email", "Email"},
		{"login.password", "Password", "Senha"},
		{"login.submit", "Login", "Entrar"},
		{"login.no_account", "New here?", "Novo por aqui?"},
		{"login.create_account", "Create an account", "Crie uma conta"},

		{"dashboard.title", "Dashboard", "Painel"},
		{"dashboard.heading", "Welcome to Parley", "Bem-vindo ao Parley"},
		{"dashboard.body", "You are signed in.", "Você está conectado."},
		{"dashboard.logout", "Logout", "Sair"},

		{"loading.title", "Loading", "Carregando"},
		{"loading.body", "Loading…", "Carregando…"},

		{"error.title_not_found", "Page not found", "Página não encontrada"},
		{"error.message_not_found", "The page you are looking for does not exist.", "A página que você procura não existe."},
		{"error.title_server_error", "Something went wrong", "Algo deu errado"},
		{"error.message_server_error", "Please try again in a moment.", "Tente novamente em instantes."},
		{"error.back_home", "Back to start", "Voltar ao início"},
	}
	for _, entry := range entries {
		set(en, entry.key, entry.en)
		set(pt, entry.key, entry.pt)
	}
}

func set(tag language.Tag, key, msg string) {
	if err := message.SetString(tag, key, msg); err != nil {
		panic("i18n: register " + key + ": " + err.Error())
	}
}

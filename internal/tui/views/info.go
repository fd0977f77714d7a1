package views

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Page is a static text tab.
type Page struct {
	Title      string
	Paragraphs []string
	Steps      []string
	Footer     string
}

// Introduction describes what the tool is for.
var Introduction = Page{
	Title: "Introduction",
	Paragraphs: []string{
		"We are glad to introduce our Computational Drug Discovery tool that will assist in the " +
			"development of efficient Tuberculosis treatment. This platform employs artificial " +
			"intelligence in the form of machine learning to forecast the efficacy of potential drugs " +
			"against TB, focusing on the DHFR enzyme.",
		"Tuberculosis is one of the most critical health challenges that the world is facing and the " +
			"emergence of drug-resistant TB makes it even hard to treat using currently available drugs. " +
			"Dihydrofolate reductase (DHFR) has become one of the most sought after targets for the " +
			"development of drugs as it plays a critical role in folate metabolism and bacterial survival. " +
			"Using Quantitative Structure-Activity Relationship (QSAR) analysis coupled with Machine " +
			"Learning approach, it is possible to enhance the search for potential DHFR inhibitors. These " +
			"computational procedures make it possible to consider molecular features importantly involved " +
			"in the inhibitory activity, which makes it possible to predict potential drug candidates " +
			"without relying solely on time-consuming animal testing.",
		"So, if you type in the canonical SMILES notation of a compound, you can immediately evaluate " +
			"its prospects for being a TB drug and avoid wasting time and money in the process of " +
			"developing new drugs.",
	},
}

// Methodology lists the prediction pipeline.
var Methodology = Page{
	Title:      "Methodology",
	Paragraphs: []string{"Our drug discovery process involves several key steps:"},
	Steps: []string{
		"Input of canonical SMILES notation",
		"Calculation of molecular properties",
		"Feature extraction and preprocessing",
		"Machine learning model prediction",
		"Results interpretation and visualization",
	},
}

// Disclaimer limits how results may be used.
var Disclaimer = Page{
	Title: "Disclaimer",
	Paragraphs: []string{
		"This tool is for research purposes only and should not be used as a substitute for " +
			"professional medical advice, diagnosis, or treatment. The predictions made by this system " +
			"are based on computational models and may not always accurately reflect real-world efficacy " +
			"or safety of the compounds.",
		"Always consult with qualified healthcare providers or pharmaceutical researchers before making " +
			"any decisions based on these results. The developers of this tool are not responsible for any " +
			"actions taken based on the output of this system.",
	},
	Footer: "Contributors: Shashank R, Lasyapriya Bharadwaj K, Vemula Yashodha, K Tappan Chengappa",
}

// InfoModel renders a Page.
type InfoModel struct {
	page   Page
	width  int
	height int
}

// NewInfoModel creates a static page view.
func NewInfoModel(page Page) InfoModel {
	return InfoModel{page: page}
}

// SetSize updates the view dimensions.
func (m *InfoModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Title is the tab label of the page.
func (m InfoModel) Title() string {
	return m.page.Title
}

// View renders the page.
func (m InfoModel) View() string {
	width := m.width - 4
	if width < 40 {
		width = 60
	}

	var b strings.Builder
	b.WriteString(cardTitleStyle.Render(m.page.Title))
	b.WriteString("\n")

	for _, p := range m.page.Paragraphs {
		b.WriteString("\n")
		b.WriteString(wordWrap(p, width))
		b.WriteString("\n")
	}

	if len(m.page.Steps) > 0 {
		b.WriteString("\n")
		for i, step := range m.page.Steps {
			b.WriteString(labelStyle.Render(strconv.Itoa(i+1) + "."))
			b.WriteString(" ")
			b.WriteString(step)
			b.WriteString("\n")
		}
	}

	if m.page.Footer != "" {
		b.WriteString("\n")
		b.WriteString(descriptionStyle.Render(wordWrap(m.page.Footer, width)))
		b.WriteString("\n")
	}

	return b.String()
}

func wordWrap(s string, width int) string {
	if width <= 0 {
		width = 60
	}
	var lines []string
	var currentLine strings.Builder
	currentWidth := 0

	for _, word := range strings.Fields(s) {
		wordWidth := runewidth.StringWidth(word)
		if currentWidth+wordWidth+1 > width && currentWidth > 0 {
			lines = append(lines, currentLine.String())
			currentLine.Reset()
			currentWidth = 0
		}
		if currentWidth > 0 {
			currentLine.WriteString(" ")
			currentWidth++
		}
		currentLine.WriteString(word)
		currentWidth += wordWidth
	}
	if currentLine.Len() > 0 {
		lines = append(lines, currentLine.String())
	}
	return strings.Join(lines, "\n")
}

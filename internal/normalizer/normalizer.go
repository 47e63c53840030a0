// Package normalizer converts the three task/mock response shapes (QUIZ custom
// content, LISTENING/READING sections, WRITING tasks) into one sections/questions list.
package normalizer

import (
	"fmt"

	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/models"
)

// Normalize never fails: a nil task or one without usable mocks yields an empty result.
func Normalize(task *models.Task) *models.NormalizedTask {
	result := &models.NormalizedTask{
		Sections:     []models.NormalizedSection{},
		AllQuestions: []models.NormalizedQuestion{},
	}
	if task == nil {
		return result
	}
	result.TaskType = task.TaskType

	if task.TaskType == models.TaskTypeQuiz {
		normalizeQuiz(task, result)
	} else {
		n := &builder{result: result}
		for mockIndex, mock := range task.Mocks {
			n.addMock(mockIndex, mock)
		}
	}

	result.TotalQuestions = len(result.AllQuestions)
	return result
}

func normalizeQuiz(task *models.Task, result *models.NormalizedTask) {
	if task.CustomContent == nil {
		return
	}

	section := models.NormalizedSection{
		ID:         "quiz",
		PartNumber: 1,
		Questions:  make([]models.NormalizedQuestion, 0, len(task.CustomContent.Questions)),
	}
	for i, q := range task.CustomContent.Questions {
		number := q.QuestionNumber.Int()
		if number <= 0 {
			number = i + 1
		}
		id, generated := q.ID.String(), false
		if id == "" {
			id, generated = fmt.Sprintf("q-%d", i), true
		}
		nq := models.NormalizedQuestion{
			ID:           id,
			Index:        i,
			Number:       number,
			NumberEnd:    number,
			QuestionType: q.QuestionType,
			SectionID:    section.ID,
			PartNumber:   section.PartNumber,
			Text:         q.Text,
			Content:      q.Options,
			Generated:    generated,
		}
		section.Questions = append(section.Questions, nq)
		result.AllQuestions = append(result.AllQuestions, nq)
	}
	result.Sections = append(result.Sections, section)
}

type builder struct {
	result       *models.NormalizedTask
	sectionIndex int
}

func (b *builder) addMock(mockIndex int, mock models.Mock) {
	if mock.MockType == models.MockTypeWriting || (len(mock.Sections) == 0 && len(mock.Tasks) > 0) {
		b.addWriting(mockIndex, mock)
		return
	}
	for _, s := range mock.Sections {
		b.addSection(mock, s)
	}
}

func (b *builder) addSection(mock models.Mock, s models.Section) {
	id := s.ID.String()
	if id == "" {
		id = fmt.Sprintf("section-%d", b.sectionIndex)
	}
	b.sectionIndex++

	part := s.PartNumber.Int()
	if part <= 0 {
		part = len(b.result.Sections) + 1
	}

	section := models.NormalizedSection{
		ID:           id,
		MockID:       mock.ID.String(),
		MockType:     mock.MockType,
		PartNumber:   part,
		Instructions: s.Instructions,
		AudioFile:    s.AudioFile,
		Images:       s.Images,
		Questions:    make([]models.NormalizedQuestion, 0, len(s.Questions)),
	}

	for _, q := range s.Questions {
		index := len(b.result.AllQuestions)
		qid, generated := q.ID.String(), false
		if qid == "" {
			qid, generated = fmt.Sprintf("q-%d", index), true
		}
		start := q.QuestionNumberStart.Int()
		if start <= 0 {
			start = b.nextNumber()
		}
		end := q.QuestionNumberEnd.Int()
		if end < start {
			end = start
		}
		if end-start >= models.MaxQuestionSpan {
			end = start + models.MaxQuestionSpan - 1
		}
		nq := models.NormalizedQuestion{
			ID:           qid,
			Index:        index,
			Number:       start,
			NumberEnd:    end,
			QuestionType: q.QuestionType,
			SectionID:    id,
			PartNumber:   part,
			Content:      q.Content,
			Generated:    generated,
		}
		section.Questions = append(section.Questions, nq)
		b.result.AllQuestions = append(b.result.AllQuestions, nq)
	}

	b.result.Sections = append(b.result.Sections, section)
}

func (b *builder) addWriting(mockIndex int, mock models.Mock) {
	section := models.NormalizedSection{
		ID:         fmt.Sprintf("writing-%d", mockIndex),
		MockID:     mock.ID.String(),
		MockType:   models.MockTypeWriting,
		PartNumber: len(b.result.Sections) + 1,
		Questions:  make([]models.NormalizedQuestion, 0, len(mock.Tasks)),
	}
	b.sectionIndex++

	for i, t := range mock.Tasks {
		index := len(b.result.AllQuestions)
		id, generated := t.ID.String(), false
		if id == "" {
			id, generated = fmt.Sprintf("q-%d", index), true
		}
		number := t.TaskNumber.Int()
		if number <= 0 {
			number = i + 1
		}
		nq := models.NormalizedQuestion{
			ID:           id,
			Index:        index,
			Number:       number,
			NumberEnd:    number,
			QuestionType: "WRITING_TASK",
			SectionID:    section.ID,
			PartNumber:   section.PartNumber,
			Text:         t.Prompt,
			Generated:    generated,
		}
		section.Questions = append(section.Questions, nq)
		b.result.AllQuestions = append(b.result.AllQuestions, nq)
	}

	b.result.Sections = append(b.result.Sections, section)
}

// nextNumber continues numbering after the last question seen so far.
func (b *builder) nextNumber() int {
	if len(b.result.AllQuestions) == 0 {
		return 1
	}
	return b.result.AllQuestions[len(b.result.AllQuestions)-1].NumberEnd + 1
}
